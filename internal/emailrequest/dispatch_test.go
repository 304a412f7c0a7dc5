package emailrequest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"queryresults/internal/external"
	"queryresults/internal/types"
)

func TestDispatcher_PassesFieldsThrough(t *testing.T) {
	provider := &mockNotifyProvider{}
	d := NewDispatcher(provider, "template-1", nil)

	provider.On("SendEmail", mock.Anything, "template-1", testEmail, external.EmailOptions{
		Personalisation: map[string]string{
			"firstName":         testFirstName,
			"secureDownloadUrl": testDownloadURL,
		},
		Reference: testZendeskID,
	}).Return(&external.EmailResponse{ID: "n-1"}, nil).Once()

	assert.NoError(t, d.Dispatch(context.Background(), validRequest()))
	provider.AssertExpectations(t)
}

func TestDispatcher_ReturnsProviderErrorUnchanged(t *testing.T) {
	provider := &mockNotifyProvider{}
	d := NewDispatcher(provider, "template-1", nil)

	upstream := types.NewAppError(types.ErrCodeUpstreamNotify, "Notify error (400): bad template", nil)
	provider.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, upstream).Once()

	err := d.Dispatch(context.Background(), validRequest())
	assert.Same(t, upstream, err)

	var appErr *types.AppError
	assert.True(t, errors.As(err, &appErr))
	provider.AssertNumberOfCalls(t, "SendEmail", 1)
}
