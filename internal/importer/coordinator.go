// Package importer checks many uploads concurrently and reports progress as
// a stream of events.
package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"templatecheck/internal/checker"
	"templatecheck/internal/model"
)

// Event types
const (
	EventStart     = "start"
	EventFileStart = "file_start"
	EventFileDone  = "file_done"
	EventFileError = "file_error"
	EventDone      = "done"
)

// DefaultWorkers 默认并发数
const DefaultWorkers = 4

// Item one file of a batch; Load is called on a worker goroutine.
type Item struct {
	Name string
	Load func() (checker.Upload, error)
}

// UploadItem wraps an in-memory upload.
func UploadItem(u checker.Upload) Item {
	return Item{
		Name: u.FileName,
		Load: func() (checker.Upload, error) { return u, nil },
	}
}

// FileItem reads path when the item is processed.
func FileItem(path string) Item {
	return Item{
		Name: filepath.Base(path),
		Load: func() (checker.Upload, error) {
			data, err := os.ReadFile(path)
			if err != nil {
				return checker.Upload{}, err
			}
			return checker.Upload{FileName: filepath.Base(path), Data: data}, nil
		},
	}
}

// DirItems every .xlsx, .xls and .csv file directly inside dir, sorted by name.
func DirItems(dir string) ([]Item, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".xlsx", ".xls", ".csv":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	items := make([]Item, 0, len(names))
	for _, name := range names {
		items = append(items, FileItem(filepath.Join(dir, name)))
	}
	return items, nil
}

// Options 批量检查选项
type Options struct {
	TemplateID model.TemplateID // empty means auto-detect per file
	Workers    int
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string      `json:"type"`
	FileName  string      `json:"fileName,omitempty"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// FileResult data of a file_done event
type FileResult struct {
	TemplateID model.TemplateID     `json:"templateType"`
	Confidence model.ConfidenceTier `json:"confidence"`
	IsValid    bool                 `json:"isValid"`
	Errors     []string             `json:"errors"`
	Warnings   []string             `json:"warnings"`
}

// Summary data of the done event
type Summary struct {
	Files    int           `json:"files"`
	Valid    int           `json:"valid"`
	Invalid  int           `json:"invalid"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"durationNs"`
}

// Coordinator 批量检查协调器
type Coordinator struct {
	checker *checker.Checker
}

// NewCoordinator 创建协调器
func NewCoordinator(chk *checker.Checker) *Coordinator {
	return &Coordinator{checker: chk}
}

// Run checks every item and returns the progress channel, closed after the
// done event. Per-file failures become file_error events. Cancelling ctx
// stops dispatching new files.
func (c *Coordinator) Run(ctx context.Context, items []Item, opts Options) <-chan ProgressEvent {
	progressChan := make(chan ProgressEvent, 100)

	go func() {
		defer close(progressChan)
		c.run(ctx, items, opts, progressChan)
	}()

	return progressChan
}

func (c *Coordinator) run(ctx context.Context, items []Item, opts Options, progressChan chan<- ProgressEvent) {
	startTime := time.Now()
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	send(progressChan, ProgressEvent{
		Type:    EventStart,
		Message: fmt.Sprintf("checking %d file(s)", len(items)),
		Data:    map[string]int{"files": len(items), "workers": workers},
	})

	var (
		mu      sync.Mutex
		summary = Summary{Files: len(items)}
	)
	count := func(valid bool, failed bool) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case failed:
			summary.Failed++
		case valid:
			summary.Valid++
		default:
			summary.Invalid++
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, item := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			valid, failed := c.checkOne(gctx, item, opts, progressChan)
			count(valid, failed)
			return nil
		})
	}
	_ = g.Wait()

	summary.Duration = time.Since(startTime)
	msg := fmt.Sprintf("%d valid, %d invalid, %d failed", summary.Valid, summary.Invalid, summary.Failed)
	if err := ctx.Err(); err != nil {
		msg += " (cancelled: " + err.Error() + ")"
	}
	send(progressChan, ProgressEvent{
		Type:    EventDone,
		Message: msg,
		Data:    summary,
	})
}

// checkOne reports (valid, failed) for one item.
func (c *Coordinator) checkOne(ctx context.Context, item Item, opts Options, progressChan chan<- ProgressEvent) (bool, bool) {
	send(progressChan, ProgressEvent{Type: EventFileStart, FileName: item.Name, Message: "checking"})

	upload, err := item.Load()
	if err != nil {
		send(progressChan, ProgressEvent{Type: EventFileError, FileName: item.Name, Message: err.Error()})
		return false, true
	}

	result, err := c.checker.Check(ctx, upload, checker.CheckOptions{TemplateID: opts.TemplateID})
	if err != nil {
		send(progressChan, ProgressEvent{Type: EventFileError, FileName: item.Name, Message: err.Error()})
		return false, true
	}

	send(progressChan, ProgressEvent{
		Type:     EventFileDone,
		FileName: item.Name,
		Message:  result.Report.Summary(),
		Data: FileResult{
			TemplateID: result.Classification.TemplateID,
			Confidence: result.Classification.ConfidenceTier,
			IsValid:    result.Report.IsValid,
			Errors:     result.Report.Errors,
			Warnings:   result.Report.Warnings,
		},
	})
	return result.Report.IsValid, false
}

func send(progressChan chan<- ProgressEvent, event ProgressEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	progressChan <- event
}
