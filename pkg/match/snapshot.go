package match

import (
	"context"
	"fmt"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// SnapshotMatches asserts that the object's content equals the previously
// recorded reference named name. A missing reference is recorded from the
// live content and passes; when UpdateSnapshots is set, the reference is
// overwritten instead of compared.
func (s *Set) SnapshotMatches(ctx context.Context, bucket, key, name string) (Result, error) {
	return s.snapshotMatches(ctx, bucket, key, name, false)
}

// SnapshotMatchesDiff is SnapshotMatches with a precomputed line-level
// colored diff attached on mismatch.
func (s *Set) SnapshotMatchesDiff(ctx context.Context, bucket, key, name string) (Result, error) {
	return s.snapshotMatches(ctx, bucket, key, name, true)
}

func (s *Set) snapshotMatches(ctx context.Context, bucket, key, name string, withDiff bool) (Result, error) {
	content, ok := s.Objects.Content(ctx, bucket, key)
	if !ok {
		return s.record(Result{
			Pass:    false,
			Message: fmt.Sprintf("cannot retrieve object s3://%s/%s for snapshot %q", bucket, key, name),
		}), nil
	}

	reference, found, err := s.Snapshots.Get(ctx, name)
	if err != nil {
		return Result{}, err
	}

	if !found || s.UpdateSnapshots {
		if err := s.Snapshots.Put(ctx, name, content); err != nil {
			return Result{}, err
		}
		verb := "recorded"
		if found {
			verb = "updated"
		}
		return s.record(Result{
			Pass:    true,
			Message: fmt.Sprintf("snapshot %q %s from s3://%s/%s", name, verb, bucket, key),
		}), nil
	}

	if content == reference {
		return s.record(Result{
			Pass:    true,
			Message: fmt.Sprintf("object s3://%s/%s matches snapshot %q", bucket, key, name),
		}), nil
	}

	result := Result{
		Pass:     false,
		Message:  fmt.Sprintf("object s3://%s/%s differs from snapshot %q", bucket, key, name),
		Actual:   content,
		Expected: reference,
	}
	if withDiff {
		result.Diff = lineDiff(reference, content)
	}
	return s.record(result), nil
}

// lineDiff renders a line-level colored diff between the reference and the
// observed content.
func lineDiff(expected, actual string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(expected, actual)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	return dmp.DiffPrettyText(diffs)
}
