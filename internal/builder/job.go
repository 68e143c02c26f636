package builder

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"datapacks/internal/config"
	"datapacks/internal/datapack"
	"datapacks/internal/discovery"
	"datapacks/internal/status"
)

const (
	defaultMaxFileSize    = 200000
	defaultMaxDeployCount = 200000
)

// Job carries the settings and the running state of one build across
// BuildImport calls.
type Job struct {
	ID            string
	ProjectPath   string
	ExpansionPath string
	Manifest      discovery.Manifest

	MaxFileSize    int
	MaxDeployCount int

	SingleFile         bool
	HeadersOnly        bool
	SupportParallel    bool
	CompileOnBuild     bool
	DefaultMaxParallel int
	DiscoveryWorkers   int
	// ResetFileData forces a fresh scan on the next call and is cleared
	// once honoured.
	ResetFileData bool

	Status *status.Map

	// SupportParallelAgain is set when a record that allows parallel
	// deployment was selected while parallel mode was off.
	SupportParallelAgain bool
	HasError             bool
	ErrorMessage         string
	Errors               []error

	PreDeployDataSummary []datapack.Record
	AllDeployDataSummary map[datapack.Key]datapack.Record
	UnmatchedManifest    map[string][]string
}

// NewJob returns a job with a fresh run ID and an empty status map.
func NewJob(projectPath string) *Job {
	return &Job{
		ID:          uuid.NewString(),
		ProjectPath: projectPath,
		Status:      status.NewMap(),
	}
}

// JobFromConfig builds a job from the [paths] and [build] sections.
func JobFromConfig(cfg *config.Config) *Job {
	job := NewJob(cfg.Paths.ProjectPath)
	job.ExpansionPath = cfg.Paths.ExpansionPath
	if len(cfg.Build.Manifest) > 0 {
		job.Manifest = discovery.Manifest(cfg.Build.Manifest)
	}
	job.MaxFileSize = cfg.Build.MaxFileSize
	job.MaxDeployCount = cfg.Build.MaxDeployCount
	job.SingleFile = cfg.Build.SingleFile
	job.HeadersOnly = cfg.Build.HeadersOnly
	job.SupportParallel = cfg.Build.SupportParallel
	job.CompileOnBuild = cfg.Build.CompileOnBuild
	job.DefaultMaxParallel = cfg.Build.DefaultMaxParallel
	job.DiscoveryWorkers = cfg.Build.DiscoveryWorkers
	return job
}

// ImportPath is the directory holding the <type>/<name> tree.
func (j *Job) ImportPath() string {
	if strings.TrimSpace(j.ExpansionPath) == "" {
		return j.ProjectPath
	}
	return filepath.Join(j.ProjectPath, j.ExpansionPath)
}

func (j *Job) limits() (size, count int) {
	size, count = j.MaxFileSize, j.MaxDeployCount
	if size <= 0 {
		size = defaultMaxFileSize
	}
	if count <= 0 {
		count = defaultMaxDeployCount
	}
	return size, count
}

func (j *Job) recordErrors(errs []error) {
	if len(errs) == 0 {
		return
	}
	j.HasError = true
	j.Errors = append(j.Errors, errs...)
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	if j.ErrorMessage != "" {
		msgs = append([]string{j.ErrorMessage}, msgs...)
	}
	j.ErrorMessage = strings.Join(msgs, "\n")
}
