package notifier

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	awsclient "skillmatch/internal/common/aws"
	"skillmatch/internal/common/errors"
	"skillmatch/internal/common/logger"
	postingsubmission "skillmatch/internal/dashboard/posting-submission"
	"skillmatch/internal/models"
)

// ==========================
// Mock SES Implementation
// ==========================

type MockSES struct {
	mock.Mock
}

func (m *MockSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ses.SendEmailOutput), args.Error(1)
}

func receipt(matches int) postingsubmission.Receipt {
	return postingsubmission.Receipt{
		CompanyName:  "Acme",
		CompanyEmail: "hr@acme.io",
		Role:         "Data Engineer",
		HiringType:   models.HiringContract,
		WorkMode:     models.WorkHybrid,
		MatchCount:   matches,
	}
}

// ==========================
// SendReceipt
// ==========================

func TestReceiptNotifier_SendsThroughSES(t *testing.T) {
	api := new(MockSES)
	messageID := "msg-1"
	api.On("SendEmail", mock.Anything, mock.MatchedBy(func(in *ses.SendEmailInput) bool {
		return *in.Source == "noreply@skillmatch.io" &&
			len(in.Destination.ToAddresses) == 1 &&
			in.Destination.ToAddresses[0] == "hr@acme.io" &&
			*in.Message.Subject.Data == "Your Data Engineer posting is live"
	})).Return(&ses.SendEmailOutput{MessageId: &messageID}, nil).Once()

	n := NewReceiptNotifier(awsclient.NewSESClientWithAPI(api, "noreply@skillmatch.io"), logger.NewTestLogger(t))
	require.NoError(t, n.SendReceipt(context.Background(), receipt(4)))
	api.AssertExpectations(t)
}

func TestReceiptNotifier_SESFailure(t *testing.T) {
	api := new(MockSES)
	api.On("SendEmail", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("throttled")).Once()

	n := NewReceiptNotifier(awsclient.NewSESClientWithAPI(api, "noreply@skillmatch.io"), logger.NewTestLogger(t))
	err := n.SendReceipt(context.Background(), receipt(1))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNetworkFailure, errors.CodeOf(err))
}

func TestReceiptNotifier_RejectsBadRecipient(t *testing.T) {
	api := new(MockSES)
	n := NewReceiptNotifier(awsclient.NewSESClientWithAPI(api, "noreply@skillmatch.io"), logger.NewTestLogger(t))

	r := receipt(1)
	r.CompanyEmail = "not-an-address"
	err := n.SendReceipt(context.Background(), r)
	assert.Equal(t, errors.ErrCodeValidation, errors.CodeOf(err))
	api.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
}

func TestReceiptBody(t *testing.T) {
	tests := []struct {
		matches int
		want    string
	}{
		{0, "No candidates match yet"},
		{1, "1 candidate matches this posting."},
		{7, "7 candidates match this posting."},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.matches), func(t *testing.T) {
			body := receiptBody(receipt(tt.matches))
			assert.Contains(t, body, tt.want)
			assert.Contains(t, body, "Hello Acme,")
			assert.Contains(t, body, "Work mode:   hybrid")
		})
	}
}
