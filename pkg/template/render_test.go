package template

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/windlass-sh/windlass/pkg/env"
	"github.com/windlass-sh/windlass/pkg/errors"
)

func TestRender(t *testing.T) {
	vars := env.New(map[string]string{
		"proj_name": "blog",
		"live_host": "example.com",
	})

	tests := []struct {
		name     string
		raw      string
		exp      string
		expError error
	}{
		{
			name: "NoPlaceholders",
			raw:  "server_name localhost;",
			exp:  "server_name localhost;",
		},
		{
			name: "SinglePlaceholder",
			raw:  "project: %(proj_name)s",
			exp:  "project: blog",
		},
		{
			name: "MultiplePlaceholders",
			raw:  "%(proj_name)s.%(live_host)s",
			exp:  "blog.example.com",
		},
		{
			name: "EscapedPercent",
			raw:  "cpu usage 100%% on %(live_host)s",
			exp:  "cpu usage 100% on example.com",
		},
		{
			name: "Empty",
			raw:  "",
			exp:  "",
		},
		{
			name:     "MissingVariable",
			raw:      "db: %(db_name)s",
			expError: errors.MissingVariable{Key: "db_name"},
		},
		{
			name: "BarePercent",
			raw:  "100% done",
			expError: errors.RenderError{
				Reason: "% must introduce a %(key)s placeholder, or be escaped as %%",
			},
		},
		{
			name:     "UnterminatedPlaceholder",
			raw:      "%(proj_name",
			expError: errors.RenderError{Reason: "unterminated placeholder"},
		},
		{
			name: "WrongVerb",
			raw:  "%(proj_name)d",
			expError: errors.RenderError{
				Reason: "placeholder %(proj_name) must end with the s verb",
			},
		},
		{
			name: "TrailingPercent",
			raw:  "trailing %",
			expError: errors.RenderError{
				Reason: "% must introduce a %(key)s placeholder, or be escaped as %%",
			},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			rendered, err := Render(test.raw, vars)
			assert.Equal(t, test.expError, err)
			assert.Equal(t, test.exp, rendered)
		})
	}
}
