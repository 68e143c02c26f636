package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"datapacks/internal/canonical"
	"datapacks/internal/datapack"
	"datapacks/internal/filecache"
	"datapacks/internal/fileutil"
	"datapacks/internal/logging"
	"datapacks/internal/schema"
	"datapacks/internal/services"
	"datapacks/internal/status"
)

const (
	metadataSuffix   = "_DataPack.json"
	parentKeysSuffix = "_ParentKeys.json"
	defaultWorkers   = 4
)

var (
	ErrNoLabel        = errors.New("no " + metadataSuffix + " metadata file")
	ErrAmbiguousLabel = errors.New("more than one " + metadataSuffix + " metadata file")
)

// Label returns the metadata label of the record directory dir: the prefix of
// its single *_DataPack.json file.
func Label(dir string) (string, error) {
	files, err := fileutil.ListFiles(dir)
	if err != nil {
		return "", err
	}
	var labels []string
	for _, name := range files {
		if label, ok := strings.CutSuffix(name, metadataSuffix); ok {
			labels = append(labels, label)
		}
	}
	switch len(labels) {
	case 0:
		return "", ErrNoLabel
	case 1:
		return labels[0], nil
	default:
		return "", fmt.Errorf("%w: %s", ErrAmbiguousLabel, strings.Join(labels, ", "))
	}
}

// MetadataPath returns the metadata file of a record directory.
func MetadataPath(dir, label string) string {
	return filepath.Join(dir, label+metadataSuffix)
}

// ParentKeysPath returns the dependency sidecar of a record directory.
func ParentKeysPath(dir, label string) string {
	return filepath.Join(dir, label+parentKeysSuffix)
}

// Record is one discovered record directory.
type Record struct {
	Key     datapack.Key
	Type    string
	Name    string
	Dir     string
	Label   string
	Files   int
	Summary datapack.Record
	// Err is set when the label could not be resolved or the files could
	// not be loaded.
	Err error
}

// Index maps keys to their discovered record.
type Index map[datapack.Key]Record

// Result is the outcome of one scan.
type Result struct {
	Records          []Record
	PreDeploySummary []datapack.Record
	AllDeploySummary map[datapack.Key]datapack.Record
	Unmatched        map[string][]string
	Files            int
}

// Index returns the records keyed by DataPack key.
func (r *Result) Index() Index {
	idx := make(Index, len(r.Records))
	for _, rec := range r.Records {
		idx[rec.Key] = rec
	}
	return idx
}

// Seed adds every discovered record to m as Ready unless the key is already
// known. Records whose label failed to resolve are seeded as Error. It
// returns the number of keys inserted.
func (r *Result) Seed(m *status.Map) int {
	inserted := 0
	for _, rec := range r.Records {
		if !m.Seed(rec.Key, status.Ready) {
			continue
		}
		inserted++
		if rec.Err != nil {
			_ = m.Fail(rec.Key, rec.Err.Error())
		}
	}
	return inserted
}

// Options controls a scan.
type Options struct {
	Root     string
	Manifest Manifest
	Workers  int
}

// Scanner discovers records and fills the file cache.
type Scanner struct {
	defs   *schema.Definitions
	cache  *filecache.Cache
	logger *slog.Logger
}

// New constructs a scanner writing into cache.
func New(defs *schema.Definitions, cache *filecache.Cache, logger *slog.Logger) *Scanner {
	return &Scanner{defs: defs, cache: cache, logger: logging.NewComponentLogger(logger, "discovery")}
}

// Scan walks opts.Root. Failures confined to one record are recorded on that
// record; only an unreadable tree aborts the scan.
func (s *Scanner) Scan(ctx context.Context, opts Options) (*Result, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, services.Wrap(services.ErrDiscovery, "discovery", "resolve root", opts.Root, err)
	}
	types, err := fileutil.ListDirs(root)
	if err != nil {
		return nil, services.Wrap(services.ErrDiscovery, "discovery", "list types", root, err)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	perType := make([][]Record, len(types))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, dataPackType := range types {
		g.Go(func() error {
			records, err := s.scanType(gctx, root, dataPackType, opts.Manifest)
			if err != nil {
				return err
			}
			perType[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{AllDeploySummary: make(map[datapack.Key]datapack.Record)}
	var pend *pending
	if opts.Manifest != nil {
		pend = newPending(opts.Manifest)
	}
	for _, records := range perType {
		for _, rec := range records {
			result.Records = append(result.Records, rec)
			result.Files += rec.Files
			if rec.Err != nil {
				continue
			}
			if pend != nil {
				pend.matched(rec.Type, rec.Name)
			}
			if rec.Summary != nil {
				result.PreDeploySummary = append(result.PreDeploySummary, rec.Summary)
				result.AllDeploySummary[rec.Key] = rec.Summary
			}
		}
	}
	if pend != nil {
		result.Unmatched = pend.unmatched()
	}
	if len(result.Unmatched) > 0 {
		s.logger.Warn("unmatched manifest entries",
			logging.Strings("types", UnmatchedTypes(result.Unmatched)),
			logging.Any("entries", result.Unmatched),
		)
	}
	s.logger.Info("discovery complete",
		logging.String("root", root),
		logging.Int("records", len(result.Records)),
		logging.Int("files", result.Files),
	)
	return result, nil
}

func (s *Scanner) scanType(ctx context.Context, root, dataPackType string, manifest Manifest) ([]Record, error) {
	typeDir := filepath.Join(root, dataPackType)
	names, err := fileutil.ListDirs(typeDir)
	if err != nil {
		return nil, services.Wrap(services.ErrDiscovery, "discovery", "list records", typeDir, err)
	}
	records := make([]Record, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if manifest != nil && !manifest.Match(dataPackType, name) {
			continue
		}
		records = append(records, s.scanRecord(dataPackType, name, filepath.Join(typeDir, name)))
	}
	return records, nil
}

func (s *Scanner) scanRecord(dataPackType, name, dir string) Record {
	rec := Record{Key: datapack.NewKey(dataPackType, name), Type: dataPackType, Name: name, Dir: dir}
	logger := s.logger.With(logging.Key(rec.Key))

	label, err := Label(dir)
	if err != nil {
		rec.Err = services.Wrap(services.ErrDiscovery, "discovery", "resolve label", "", err)
		logger.Warn("missing metadata file", logging.Error(err))
		return rec
	}
	rec.Label = label

	files, err := s.cache.LoadDir(dir)
	rec.Files = files
	if err != nil {
		rec.Err = services.Wrap(services.ErrDiscovery, "discovery", "load files", "", err)
		logger.Warn("failed to load record files", logging.Error(err))
		return rec
	}

	summary, err := s.summarize(MetadataPath(dir, label))
	if err != nil {
		// The scheduler reports the malformed metadata when it selects the record.
		logger.Warn("unreadable metadata file", logging.Error(err))
	}
	rec.Summary = summary
	logger.Debug("record discovered", logging.String("label", label), logging.Int("files", files))
	return rec
}

func (s *Scanner) summarize(metadataPath string) (datapack.Record, error) {
	entry, ok := s.cache.Get(metadataPath)
	if !ok {
		return nil, fmt.Errorf("%s not cached", metadataPath)
	}
	decoded, err := canonical.Decode(entry.Content)
	if err != nil {
		return nil, err
	}
	if items, ok := decoded.([]any); ok && len(items) > 0 {
		decoded = items[0]
	}
	data, ok := decoded.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("metadata is not an object")
	}
	summary := datapack.Record{}
	for _, field := range s.defs.ImportDataKeys(datapack.RecordType(data)) {
		if value, ok := data[field]; ok {
			summary[field] = value
		}
	}
	return summary, nil
}
