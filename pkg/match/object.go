package match

import (
	"context"
	"fmt"
	"strings"
)

// ObjectExists asserts that the object is present in the store.
func (s *Set) ObjectExists(ctx context.Context, bucket, key string) (Result, error) {
	found, err := s.Objects.Exists(ctx, bucket, key)
	if err != nil {
		return Result{}, err
	}
	if !found {
		return s.record(Result{
			Pass:    false,
			Message: fmt.Sprintf("expected object s3://%s/%s to exist, but it does not", bucket, key),
		}), nil
	}
	return s.record(Result{
		Pass:    true,
		Message: fmt.Sprintf("object s3://%s/%s exists", bucket, key),
	}), nil
}

// ObjectMissing asserts that the object is absent from the store.
func (s *Set) ObjectMissing(ctx context.Context, bucket, key string) (Result, error) {
	found, err := s.Objects.Exists(ctx, bucket, key)
	if err != nil {
		return Result{}, err
	}
	if found {
		return s.record(Result{
			Pass:    false,
			Message: fmt.Sprintf("expected object s3://%s/%s to be absent, but it exists", bucket, key),
		}), nil
	}
	return s.record(Result{
		Pass:    true,
		Message: fmt.Sprintf("object s3://%s/%s is absent", bucket, key),
	}), nil
}

// ObjectCreated uploads the body and asserts the write succeeded.
func (s *Set) ObjectCreated(ctx context.Context, bucket, key, body string) (Result, error) {
	if err := s.Objects.Put(ctx, bucket, key, strings.NewReader(body)); err != nil {
		return Result{}, err
	}
	return s.record(Result{
		Pass:    true,
		Message: fmt.Sprintf("object s3://%s/%s created", bucket, key),
	}), nil
}

// ObjectContent asserts that the object's content equals want.
func (s *Set) ObjectContent(ctx context.Context, bucket, key, want string) (Result, error) {
	got, ok := s.Objects.Content(ctx, bucket, key)
	if !ok {
		return s.record(Result{
			Pass:     false,
			Message:  fmt.Sprintf("cannot retrieve object s3://%s/%s", bucket, key),
			Expected: want,
		}), nil
	}
	if got != want {
		return s.record(Result{
			Pass:     false,
			Message:  fmt.Sprintf("object s3://%s/%s content mismatch", bucket, key),
			Actual:   got,
			Expected: want,
		}), nil
	}
	return s.record(Result{
		Pass:    true,
		Message: fmt.Sprintf("object s3://%s/%s has the expected content", bucket, key),
	}), nil
}
