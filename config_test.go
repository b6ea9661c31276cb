package main

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYAMLConfigParser(t *testing.T) {
	t.Parallel()

	tests := []struct {
		desc string
		give string
		want []string
	}{
		{desc: "empty"},
		{
			desc: "scalars",
			give: "style: monokai\njobs: 4\nclasses: true\n",
			want: []string{"classes=true", "jobs=4", "style=monokai"},
		},
		{
			desc: "list",
			give: "header:\n  - 'A: 1'\n  - 'B: 2'\n",
			want: []string{"header=A: 1", "header=B: 2"},
		},
		{
			desc: "null",
			give: "base:\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			t.Parallel()

			var got []string
			err := yamlConfigParser(strings.NewReader(tt.give), func(name, value string) error {
				got = append(got, name+"="+value)
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestYAMLConfigParser_errors(t *testing.T) {
	t.Parallel()

	t.Run("mapping", func(t *testing.T) {
		t.Parallel()

		err := yamlConfigParser(strings.NewReader("style:\n  name: x\n"), func(string, string) error {
			return nil
		})
		assert.ErrorContains(t, err, `config "style": unexpected mapping`)
	})

	t.Run("syntax", func(t *testing.T) {
		t.Parallel()

		err := yamlConfigParser(strings.NewReader("style: [\n"), func(string, string) error {
			return nil
		})
		assert.ErrorContains(t, err, "parse config")
	})

	t.Run("set", func(t *testing.T) {
		t.Parallel()

		err := yamlConfigParser(strings.NewReader("jobs: x\n"), func(name, value string) error {
			return fmt.Errorf("bad %v", name)
		})
		assert.ErrorContains(t, err, "bad jobs")
	})
}
