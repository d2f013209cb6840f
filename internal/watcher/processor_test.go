package watcher

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hyperjump/datawizard/internal/config"
	"github.com/hyperjump/datawizard/internal/fileid"
	"github.com/hyperjump/datawizard/internal/models"
)

type mockRunner struct {
	mu       sync.Mutex
	reqs     []models.RunRequest
	outcomes []models.Outcome
	err      error
}

func (m *mockRunner) Run(_ context.Context, req models.RunRequest) (*models.RunResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reqs = append(m.reqs, req)
	return &models.RunResult{Request: req, Outcomes: m.outcomes}, m.err
}

func (m *mockRunner) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reqs)
}

type mockChecker map[string]bool

func (m mockChecker) HasFingerprint(_ context.Context, fp string) (bool, error) {
	return m[fp], nil
}

func testWatchConfig(outbox string) config.WatchConfig {
	return config.WatchConfig{Outbox: outbox, Instruction: "Ringkas", Format: "word", Mode: "file"}
}

func TestProcessor_Process(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	src := filepath.Join(in, "laporan.csv")
	if err := writeFile(src, "a,b\n1,2\n"); err != nil {
		t.Fatal(err)
	}
	runner := &mockRunner{}
	p := NewProcessor(runner, testWatchConfig(out))

	_, skipped, err := p.Process(context.Background(), src)
	if err != nil || skipped {
		t.Fatalf("Process: skipped=%v err=%v", skipped, err)
	}
	req := runner.reqs[0]
	if req.Source != src || req.OutputPath != filepath.Join(out, "laporan.txt") {
		t.Errorf("request paths: %+v", req)
	}
	if req.Instruction != "Ringkas" || req.Format != models.FormatWord || req.Mode != models.ModeFile {
		t.Errorf("request settings: %+v", req)
	}

	// same content again is skipped
	if _, skipped, _ := p.Process(context.Background(), src); !skipped {
		t.Error("unchanged file should be skipped")
	}

	// changed content runs again
	if err := writeFile(src, "a,b\n3,4\n"); err != nil {
		t.Fatal(err)
	}
	if _, skipped, _ := p.Process(context.Background(), src); skipped {
		t.Error("changed file should be processed")
	}
	if runner.count() != 2 {
		t.Errorf("runs: got %d, want 2", runner.count())
	}
}

func TestProcessor_SkipsFingerprintInHistory(t *testing.T) {
	in := t.TempDir()
	src := filepath.Join(in, "scan.pdf")
	if err := writeFile(src, "%PDF"); err != nil {
		t.Fatal(err)
	}
	fp, err := fileid.Fingerprint(src)
	if err != nil {
		t.Fatal(err)
	}
	runner := &mockRunner{}
	p := NewProcessor(runner, testWatchConfig(t.TempDir()), WithFingerprintChecker(mockChecker{fp: true}))

	if _, skipped, _ := p.Process(context.Background(), src); !skipped {
		t.Error("file already in history should be skipped")
	}
	if runner.count() != 0 {
		t.Errorf("runner called %d times", runner.count())
	}
}

func TestProcessor_FatalRunIsRetried(t *testing.T) {
	in := t.TempDir()
	src := filepath.Join(in, "a.docx")
	if err := writeFile(src, "x"); err != nil {
		t.Fatal(err)
	}
	runner := &mockRunner{err: errors.New("disk full")}
	p := NewProcessor(runner, testWatchConfig(t.TempDir()))

	if _, _, err := p.Process(context.Background(), src); err == nil {
		t.Fatal("expected error")
	}
	if _, skipped, _ := p.Process(context.Background(), src); skipped {
		t.Error("a failed file should not be marked processed")
	}
}

func TestProcessor_DegradedRunIsRetried(t *testing.T) {
	src := filepath.Join(t.TempDir(), "nilai.xlsx")
	if err := writeFile(src, "x"); err != nil {
		t.Fatal(err)
	}
	runner := &mockRunner{outcomes: []models.Outcome{
		models.OK(models.StageExtract),
		models.Degraded(models.StageGenerate, "connection reset"),
	}}
	p := NewProcessor(runner, testWatchConfig(t.TempDir()))

	res, skipped, err := p.Process(context.Background(), src)
	if err != nil || skipped || res.Status() != models.StatusDegraded {
		t.Fatalf("first run: skipped=%v err=%v", skipped, err)
	}
	if _, skipped, _ := p.Process(context.Background(), src); skipped {
		t.Error("a degraded run should be retried")
	}
	if runner.count() != 2 {
		t.Errorf("runs: got %d, want 2", runner.count())
	}

	// once the service recovers the file settles
	runner.mu.Lock()
	runner.outcomes = nil
	runner.mu.Unlock()
	if _, skipped, _ := p.Process(context.Background(), src); skipped {
		t.Error("third run should still happen")
	}
	if _, skipped, _ := p.Process(context.Background(), src); !skipped {
		t.Error("a clean run should mark the file processed")
	}
}

func TestProcessor_MissingFileIsSkipped(t *testing.T) {
	runner := &mockRunner{}
	p := NewProcessor(runner, testWatchConfig(t.TempDir()))
	if _, skipped, _ := p.Process(context.Background(), filepath.Join(t.TempDir(), "gone.pdf")); !skipped {
		t.Error("missing file should be skipped")
	}
}

func TestProcessor_OutputPathDoesNotOverwrite(t *testing.T) {
	out := t.TempDir()
	if err := writeFile(filepath.Join(out, "cv.txt"), "old"); err != nil {
		t.Fatal(err)
	}
	p := NewProcessor(&mockRunner{}, testWatchConfig(out))
	if got, want := p.outputPath("/in/cv.pdf"), filepath.Join(out, "cv (1).txt"); got != want {
		t.Errorf("outputPath = %q, want %q", got, want)
	}
}

func TestProcessor_RunDrainsQueue(t *testing.T) {
	in := t.TempDir()
	runner := &mockRunner{}
	done := make(chan string, 4)
	p := NewProcessor(runner, testWatchConfig(t.TempDir()),
		WithResultHandler(func(path string, _ *models.RunResult, _ error) { done <- path }))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	for _, name := range []string{"a.txt", "b.txt"} {
		path := filepath.Join(in, name)
		if err := writeFile(path, name); err != nil {
			t.Fatal(err)
		}
		p.Enqueue(path)
	}
	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for run %d", i+1)
		}
	}
	if runner.count() != 2 {
		t.Errorf("runs: got %d", runner.count())
	}
}

func TestProcessor_EnqueueAfterStopDoesNotBlock(t *testing.T) {
	p := NewProcessor(&mockRunner{}, testWatchConfig(t.TempDir()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.Run(ctx)

	late := filepath.Join(t.TempDir(), "late.txt")
	done := make(chan struct{})
	go func() {
		for i := 0; i < queueSize+1; i++ {
			p.Enqueue(late)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Enqueue blocked after Run returned")
	}
}
