package validate

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/provider/mocks"
)

type sleepLog struct {
	waits []time.Duration
}

func (s *sleepLog) sleep(ctx context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return ctx.Err()
}

func addresses(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("user%d@example.com", i)
	}
	return out
}

func validatorMock(available bool) *mocks.MockEmailValidator {
	m := &mocks.MockEmailValidator{}
	m.On("Name").Return("zerobounce").Maybe()
	m.On("Available").Return(available).Maybe()
	return m
}

// echoValid answers every address in the batch as valid.
func echoValid(_ context.Context, addrs []string) []model.ValidationResult {
	out := make([]model.ValidationResult, len(addrs))
	for i, a := range addrs {
		out[i] = model.ValidationResult{Address: a, Status: model.StatusValid}
	}
	return out
}

func TestChunk_CoversEveryInputOnce(t *testing.T) {
	in := addresses(120)
	chunks := Chunk(in, 50)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 50)
	assert.Len(t, chunks[1], 50)
	assert.Len(t, chunks[2], 20)

	seen := map[string]int{}
	for _, c := range chunks {
		for _, a := range c {
			seen[a]++
		}
	}
	assert.Len(t, seen, 120)
	for _, a := range in {
		assert.Equal(t, 1, seen[a], a)
	}
}

func TestChunk_Edges(t *testing.T) {
	assert.Nil(t, Chunk(nil, 50))
	assert.Nil(t, Chunk(addresses(3), 0))
	assert.Len(t, Chunk(addresses(50), 50), 1)
}

func TestValidateAll_BatchesAndPaces(t *testing.T) {
	m := validatorMock(true)
	m.On("ValidateBatch", mock.Anything, mock.Anything).Return(echoValid, nil)

	sl := &sleepLog{}
	v := New(m, Options{BatchSize: 50, BatchDelay: 4 * time.Second, Sleep: sl.sleep})
	got := v.ValidateAll(context.Background(), addresses(120))

	require.Len(t, got, 120)
	for _, r := range got {
		assert.Equal(t, model.StatusValid, r.Status)
	}
	m.AssertNumberOfCalls(t, "ValidateBatch", 3)
	assert.Equal(t, []time.Duration{4 * time.Second, 4 * time.Second}, sl.waits, "no delay after the last batch")
}

func TestValidateAll_FailOpen(t *testing.T) {
	m := validatorMock(true)
	m.On("ValidateBatch", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	v := New(m, Options{Sleep: (&sleepLog{}).sleep})
	got := v.ValidateAll(context.Background(), addresses(60))

	require.Len(t, got, 60)
	for _, r := range got {
		assert.Equal(t, model.StatusUnknown, r.Status)
		assert.Equal(t, model.SubStatusBatchFailed, r.SubStatus)
	}
}

func TestValidateAll_PartialFailure(t *testing.T) {
	m := validatorMock(true)
	m.On("ValidateBatch", mock.Anything, mock.Anything).Return(echoValid, nil).Once()
	m.On("ValidateBatch", mock.Anything, mock.Anything).Return(nil, errors.New("502")).Once()

	v := New(m, Options{BatchSize: 2, Sleep: (&sleepLog{}).sleep})
	got := v.ValidateAll(context.Background(), addresses(4))

	assert.Equal(t, model.StatusValid, got["user0@example.com"].Status)
	assert.Equal(t, model.StatusValid, got["user1@example.com"].Status)
	assert.Equal(t, model.SubStatusBatchFailed, got["user2@example.com"].SubStatus)
	assert.Equal(t, model.SubStatusBatchFailed, got["user3@example.com"].SubStatus)
}

func TestValidateAll_NotReturned(t *testing.T) {
	m := validatorMock(true)
	m.On("ValidateBatch", mock.Anything, mock.Anything).Return([]model.ValidationResult{
		{Address: "A@x.com", Status: model.StatusCatchAll},
		{Address: "stranger@x.com", Status: model.StatusValid},
	}, nil)

	v := New(m, Options{Sleep: (&sleepLog{}).sleep})
	got := v.ValidateAll(context.Background(), []string{"a@x.com", "b@x.com"})

	require.Len(t, got, 2)
	assert.Equal(t, model.StatusCatchAll, got["a@x.com"].Status)
	assert.Equal(t, model.Unknown("b@x.com", model.SubStatusNotReturned), got["b@x.com"])
}

func TestValidateAll_NoProvider(t *testing.T) {
	got := New(nil, Options{}).ValidateAll(context.Background(), []string{"a@x.com"})
	assert.Equal(t, model.Unknown("a@x.com", model.SubStatusNotChecked), got["a@x.com"])

	m := validatorMock(false)
	got = New(m, Options{}).ValidateAll(context.Background(), []string{"a@x.com"})
	assert.Equal(t, model.SubStatusNotChecked, got["a@x.com"].SubStatus)
	m.AssertNotCalled(t, "ValidateBatch", mock.Anything, mock.Anything)
}

func TestValidateAll_DedupesAndDropsMalformed(t *testing.T) {
	m := validatorMock(true)
	m.On("ValidateBatch", mock.Anything, []string{"a@x.com"}).Return(echoValid, nil)

	v := New(m, Options{Sleep: (&sleepLog{}).sleep})
	got := v.ValidateAll(context.Background(), []string{"a@x.com", "A@X.COM ", "broken", ""})
	assert.Len(t, got, 1)
	m.AssertNumberOfCalls(t, "ValidateBatch", 1)
}

func TestValidateAll_Empty(t *testing.T) {
	m := validatorMock(true)
	got := New(m, Options{}).ValidateAll(context.Background(), nil)
	assert.Empty(t, got)
	m.AssertNotCalled(t, "ValidateBatch", mock.Anything, mock.Anything)
}

func TestValidateAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := validatorMock(true)
	got := New(m, Options{}).ValidateAll(ctx, addresses(3))
	require.Len(t, got, 3)
	for _, r := range got {
		assert.Equal(t, model.SubStatusNotChecked, r.SubStatus)
	}
	m.AssertNotCalled(t, "ValidateBatch", mock.Anything, mock.Anything)
}

type limitedValidator struct {
	*mocks.MockEmailValidator
}

func (limitedValidator) MaxBatchSize() int { return 100 }

func TestNew_CapsBatchSize(t *testing.T) {
	v := New(limitedValidator{validatorMock(true)}, Options{BatchSize: 500})
	assert.Equal(t, 100, v.BatchSize())
	assert.Equal(t, 50, New(nil, Options{}).BatchSize())
}
