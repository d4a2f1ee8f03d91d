package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeArgs(t *testing.T) {
	cases := []struct {
		args    []string
		wantErr bool
	}{
		{[]string{"-sV", "10.0.0.1"}, false},
		{[]string{"foo; bar"}, true},
		{[]string{"foo && bar"}, true},
		{[]string{"foo | bar"}, true},
		{[]string{"$(whoami)"}, true},
		{[]string{"foo\nbar"}, true},
		{[]string{"normal-arg_1.2.3"}, false},
	}
	for _, c := range cases {
		err := sanitizeArgs(c.args)
		if c.wantErr {
			assert.Error(t, err, "%v", c.args)
		} else {
			assert.NoError(t, err, "%v", c.args)
		}
	}
}
