package flow

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/teranos/cadence/errors"
	"github.com/teranos/cadence/execution"
	"github.com/teranos/cadence/internal/util"
	"github.com/teranos/cadence/logger"
	"github.com/teranos/cadence/trigger"
)

// fileDefinition is the on-disk YAML shape of one flow file.
type fileDefinition struct {
	Namespace string                  `yaml:"namespace"`
	ID        string                  `yaml:"id"`
	Revision  int                     `yaml:"revision"`
	Triggers  []fileTriggerDefinition `yaml:"triggers"`
}

// fileTriggerDefinition is the on-disk YAML shape of one trigger within a
// flow file. Type "interval" is the only kind built in; it fires
// unconditionally once its interval has elapsed, serving as a reference
// PollingTriggerDeclaration for embedders that need a concrete example.
type fileTriggerDefinition struct {
	ID       string `yaml:"id"`
	Type     string `yaml:"type"`
	Interval string `yaml:"interval"`
}

// FileListener is a concrete Listener that watches a directory of YAML
// flow definitions on disk and reparses them on write, rename, or remove
// events.
type FileListener struct {
	dir     string
	log     *zap.SugaredLogger
	watcher *fsnotify.Watcher

	mu    sync.RWMutex
	flows []Flow
}

// NewFileListener builds a FileListener over dir and performs an initial
// load. Call Start to begin watching for changes; Flows works immediately
// against the initial snapshot even if Start is never called.
func NewFileListener(dir string, log *zap.SugaredLogger) (*FileListener, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create flow file watcher")
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, errors.Wrapf(err, "watch flow directory %s", dir)
	}

	l := &FileListener{dir: dir, log: log, watcher: watcher}
	if err := l.reload(); err != nil {
		watcher.Close()
		return nil, err
	}
	return l, nil
}

// Flows returns the current snapshot of parsed flows.
func (l *FileListener) Flows(ctx context.Context) ([]Flow, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Flow, len(l.flows))
	copy(out, l.flows)
	return out, nil
}

// Start watches the directory until ctx is cancelled, reparsing the whole
// directory whenever a file is created, written, renamed, or removed. A
// file that fails to parse is logged and left out of the new snapshot,
// which still holds every other flow; if the directory itself cannot be
// read, the prior snapshot stays in place.
func (l *FileListener) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-l.watcher.Events:
				if !ok {
					return
				}
				if !isFlowFile(filepath.Base(event.Name)) {
					continue
				}
				if err := l.reload(); err != nil && l.log != nil {
					logger.AddSchedulerSymbol(l.log).Warnw("failed to reload flow directory after file event",
						"error", err, "event", event.Name)
				}
			case err, ok := <-l.watcher.Errors:
				if !ok {
					return
				}
				if l.log != nil {
					logger.AddSchedulerSymbol(l.log).Warnw("flow file watcher error", "error", err)
				}
			}
		}
	}()
}

// Close stops watching the directory.
func (l *FileListener) Close() error {
	return l.watcher.Close()
}

// isFlowFile reports whether name is a flow definition worth parsing. It
// excludes editor backup and swap files (e.g. "flow.yaml~", ".flow.yaml.swp")
// that would otherwise trigger a spurious reload on every keystroke.
func isFlowFile(name string) bool {
	if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
		return false
	}
	return !util.HasPrefixOrSuffix(name, "~") && !util.HasPrefixOrSuffix(name, ".")
}

func (l *FileListener) reload() error {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return errors.Wrapf(err, "read flow directory %s", l.dir)
	}

	var flows []Flow
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !isFlowFile(name) {
			continue
		}

		f, err := l.parseFile(filepath.Join(l.dir, name))
		if err != nil {
			if l.log != nil {
				logger.AddSchedulerSymbol(l.log).Warnw("skipping unparseable flow file", "file", name, "error", err)
			}
			continue
		}
		flows = append(flows, f)
	}

	l.mu.Lock()
	l.flows = flows
	l.mu.Unlock()

	return nil
}

func (l *FileListener) parseFile(path string) (Flow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Flow{}, errors.Wrapf(err, "read %s", path)
	}

	var def fileDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return Flow{}, errors.Wrapf(err, "parse %s", path)
	}

	f := Flow{Namespace: def.Namespace, ID: def.ID, Revision: def.Revision}
	for _, td := range def.Triggers {
		switch td.Type {
		case "interval", "":
			interval, err := time.ParseDuration(td.Interval)
			if err != nil {
				return Flow{}, errors.Wrapf(err, "invalid interval %q for trigger %s in %s", td.Interval, td.ID, path)
			}
			f.Triggers = append(f.Triggers, &intervalTrigger{id: td.ID, interval: interval})
		default:
			return Flow{}, errors.Newf("unknown trigger type %q for trigger %s in %s", td.Type, td.ID, path)
		}
	}

	return f, nil
}

// intervalTrigger is the reference PollingTriggerDeclaration: it fires as
// soon as its interval has elapsed since the last recorded fire, with no
// further condition.
type intervalTrigger struct {
	id       string
	interval time.Duration
}

func (t *intervalTrigger) ID() string             { return t.id }
func (t *intervalTrigger) Interval() time.Duration { return t.interval }

func (t *intervalTrigger) NextDate(last *trigger.Record) time.Time {
	if last == nil {
		return time.Time{}
	}
	return last.Date.Add(t.interval)
}

func (t *intervalTrigger) Evaluate(ctx context.Context, runCtx RunContext, tc trigger.Context) (*execution.Execution, error) {
	now := time.Now().UTC()
	return &execution.Execution{
		ID:        uuid.NewString(),
		Namespace: tc.Namespace,
		FlowID:    tc.FlowID,
		State:     execution.StateRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
