package flagvalue

import (
	"flag"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		desc       string
		give       string
		want       Header
		wantString string
	}{
		{
			desc:       "simple",
			give:       "Authorization: Bearer foo",
			want:       Header{Name: "Authorization", Value: "Bearer foo"},
			wantString: "Authorization: Bearer foo",
		},
		{
			desc:       "canonical name",
			give:       "x-api-key:secret",
			want:       Header{Name: "X-Api-Key", Value: "secret"},
			wantString: "X-Api-Key: secret",
		},
		{
			desc:       "colon in value",
			give:       "Referer: https://example.com",
			want:       Header{Name: "Referer", Value: "https://example.com"},
			wantString: "Referer: https://example.com",
		},
		{
			desc:       "empty value",
			give:       "X-Empty:",
			want:       Header{Name: "X-Empty"},
			wantString: "X-Empty: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			t.Parallel()

			var got Header
			require.NoError(t, got.Set(tt.give))
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, got.Get())
			assert.Equal(t, tt.wantString, got.String())
		})
	}
}

func TestHeader_error(t *testing.T) {
	t.Parallel()

	for _, give := range []string{"", "no-colon", ": value"} {
		var h Header
		assert.ErrorContains(t, h.Set(give), "expected form 'Name: value'", "input %q", give)
	}
}

func TestHeader_list(t *testing.T) {
	t.Parallel()

	fset := flag.NewFlagSet(t.Name(), flag.ContinueOnError)
	fset.SetOutput(io.Discard)

	var got []Header
	fset.Var(ListOf(&got), "header", "")
	require.NoError(t, fset.Parse([]string{
		"-header", "Accept: text/plain",
		"-header=X-Token: a",
		"-header", "x-token: b",
	}))

	assert.Equal(t, http.Header{
		"Accept":  {"text/plain"},
		"X-Token": {"a", "b"},
	}, HTTPHeader(got))
	assert.Nil(t, HTTPHeader(nil))
}
