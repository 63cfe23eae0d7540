package usecase_test

import (
	"errors"
	"testing"

	"github.com/lheh1167/slack-pair-bot/pkg/service/directory"
	"github.com/lheh1167/slack-pair-bot/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

func TestErrors_SentinelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrDirectoryUnavailable", usecase.ErrDirectoryUnavailable},
		{"ErrAuthorizationDenied", usecase.ErrAuthorizationDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, tt.err).NotNil()
		})
	}
}

func TestErrors_ErrorsAreDistinct(t *testing.T) {
	gt.Bool(t, errors.Is(usecase.ErrDirectoryUnavailable, usecase.ErrAuthorizationDenied)).False()
}

func TestErrors_DirectoryUnavailableSurvivesWrapping(t *testing.T) {
	err := goerr.Wrap(directory.ErrDirectoryUnavailable, "refresh failed")
	gt.Error(t, err).Is(usecase.ErrDirectoryUnavailable)
}
