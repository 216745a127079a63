package client

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func newLocal(t *testing.T) *LocalStore {
	t.Helper()
	ls, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	return ls
}

func TestLocalStoreRoundTrip(t *testing.T) {
	ls := newLocal(t)

	var got []string
	found, err := ls.Get("missing", &got)
	if err != nil || found {
		t.Fatalf("Expected missing key to be absent, got found=%v err=%v", found, err)
	}

	if err := ls.Set(ProgressKey("study", "set-1"), []string{"a", "b"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	found, err = ls.Get("quiz-progress-study-set-1", &got)
	if err != nil || !found || len(got) != 2 {
		t.Fatalf("Expected stored value back, got %v found=%v err=%v", got, found, err)
	}

	if err := ls.Delete(ProgressKey("study", "set-1")); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := ls.Delete(ProgressKey("study", "set-1")); err != nil {
		t.Errorf("Expected deleting twice to be fine, got %v", err)
	}
	if found, _ := ls.Get(ProgressKey("study", "set-1"), &got); found {
		t.Error("Expected key to be gone after delete")
	}
}

func TestLocalStoreKeepsKeysInsideDir(t *testing.T) {
	ls := newLocal(t)
	if err := ls.Set("../escape", 1); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	var v int
	if found, err := ls.Get("../escape", &v); err != nil || !found || v != 1 {
		t.Errorf("Expected value stored under a sanitized name, got %d found=%v err=%v", v, found, err)
	}
}

var errOffline = errors.New("dial tcp: connection refused")

func TestCachedLoadFallbacks(t *testing.T) {
	ctx := context.Background()
	ls := newLocal(t)
	seed := func() []string { return []string{"seed"} }

	c := NewCached("words", ls, seed)
	if src := c.Load(ctx, func(context.Context) ([]string, error) { return nil, errOffline }); src != SourceSeed {
		t.Fatalf("Expected seed with no local copy, got %s", src)
	}
	if got := c.Get(); len(got) != 1 || got[0] != "seed" {
		t.Errorf("Expected seed value, got %v", got)
	}

	if src := c.Load(ctx, func(context.Context) ([]string, error) { return []string{"remote"}, nil }); src != SourceRemote {
		t.Fatalf("Expected remote source, got %s", src)
	}

	again := NewCached("words", ls, seed)
	if src := again.Load(ctx, func(context.Context) ([]string, error) { return nil, errOffline }); src != SourceLocal {
		t.Fatalf("Expected mirrored local copy, got %s", src)
	}
	if got := again.Get(); len(got) != 1 || got[0] != "remote" {
		t.Errorf("Expected mirrored remote value, got %v", got)
	}
}

func TestCachedMutate(t *testing.T) {
	ctx := context.Background()
	appendLocal := func(v string) func(context.Context, []string) ([]string, error) {
		return func(_ context.Context, cur []string) ([]string, error) {
			return append(append([]string{}, cur...), v), nil
		}
	}

	testCases := []struct {
		name      string
		remoteErr error
		wantErr   bool
		want      []string
	}{
		{"remote ok", nil, false, []string{"remote"}},
		{"network error falls back", errOffline, false, []string{"local"}},
		{"server error falls back", &APIError{Status: http.StatusInternalServerError}, false, []string{"local"}},
		{"rejected request", &APIError{Status: http.StatusBadRequest, Message: "bad"}, true, nil},
		{"canceled", context.Canceled, true, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewCached[[]string]("list", newLocal(t), nil)
			remote := func(_ context.Context, cur []string) ([]string, error) {
				if tc.remoteErr != nil {
					return nil, tc.remoteErr
				}
				return append(append([]string{}, cur...), "remote"), nil
			}
			_, err := c.Mutate(ctx, remote, appendLocal("local"))
			if (err != nil) != tc.wantErr {
				t.Fatalf("Expected error %v, got %v", tc.wantErr, err)
			}
			got := c.Get()
			if len(got) != len(tc.want) {
				t.Fatalf("Expected %v, got %v", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("Expected %v, got %v", tc.want, got)
				}
			}
		})
	}
}

func TestCachedSubscribe(t *testing.T) {
	ctx := context.Background()
	c := NewCached[int]("n", newLocal(t), nil)
	ch, cancel := c.Subscribe()

	if v := <-ch; v != 0 {
		t.Errorf("Expected current value first, got %d", v)
	}

	for i := 1; i <= 3; i++ {
		n := i
		if _, err := c.Mutate(ctx, nil, func(context.Context, int) (int, error) { return n, nil }); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	select {
	case v := <-ch:
		if v != 3 {
			t.Errorf("Expected only the latest value for a slow reader, got %d", v)
		}
	case <-time.After(time.Second):
		t.Fatal("Expected a published value")
	}

	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Error("Expected channel to be closed after cancel")
	}
}
