package workflow_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fivetwenty-io/rundeck-admin/pkg/rundeck"
)

// fakeInstance is an in-memory Rundeck instance. Project archives are kept
// as opaque bytes.
type fakeInstance struct {
	mu sync.Mutex

	host     string
	projects map[string][]byte
	// importStatus forces the import_status reported for a project.
	importStatus map[string]string
	jobs         map[string][]byte
	executions   map[string][]int64
	failDelete   map[int64]bool

	calls        []string
	importOpts   map[string]*rundeck.ImportOptions
	jobImports   map[string][]byte
	executionEnd *time.Time
}

func newFakeInstance(host string, projects map[string]string) *fakeInstance {
	fake := &fakeInstance{
		host:         host,
		projects:     map[string][]byte{},
		importStatus: map[string]string{},
		jobs:         map[string][]byte{},
		executions:   map[string][]int64{},
		failDelete:   map[int64]bool{},
		importOpts:   map[string]*rundeck.ImportOptions{},
		jobImports:   map[string][]byte{},
	}

	for name, content := range projects {
		fake.projects[name] = []byte(content)
	}

	return fake
}

func (f *fakeInstance) record(format string, args ...interface{}) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeInstance) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	names := make([]string, 0, len(f.projects))
	for name := range f.projects {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func (f *fakeInstance) Projects() rundeck.ProjectsClient     { return fakeProjects{f} }
func (f *fakeInstance) Jobs() rundeck.JobsClient             { return fakeJobs{f} }
func (f *fakeInstance) Executions() rundeck.ExecutionsClient { return fakeExecutions{f} }
func (f *fakeInstance) System() rundeck.SystemClient         { return nil }
func (f *fakeInstance) Endpoint() string                     { return "https://" + f.host }
func (f *fakeInstance) Instance() string                     { return f.host }

type fakeProjects struct{ f *fakeInstance }

func (p fakeProjects) List(ctx context.Context) ([]rundeck.Project, error) {
	names, _ := p.ListNames(ctx)

	projects := make([]rundeck.Project, 0, len(names))
	for _, name := range names {
		projects = append(projects, rundeck.Project{Name: name})
	}

	return projects, nil
}

func (p fakeProjects) ListNames(context.Context) ([]string, error) {
	return p.f.names(), nil
}

func (p fakeProjects) Exists(_ context.Context, name string) (bool, error) {
	p.f.mu.Lock()
	defer p.f.mu.Unlock()

	_, ok := p.f.projects[name]

	return ok, nil
}

func (p fakeProjects) Create(_ context.Context, name string) error {
	p.f.mu.Lock()
	defer p.f.mu.Unlock()

	p.f.record("create %s", name)

	if _, ok := p.f.projects[name]; ok {
		return &rundeck.APIError{StatusCode: 409, Message: "project exists"}
	}

	p.f.projects[name] = []byte{}

	return nil
}

func (p fakeProjects) Delete(_ context.Context, name string) error {
	p.f.mu.Lock()
	defer p.f.mu.Unlock()

	p.f.record("delete %s", name)

	if _, ok := p.f.projects[name]; !ok {
		return &rundeck.APIError{StatusCode: 404, Message: "no such project"}
	}

	delete(p.f.projects, name)

	return nil
}

func (p fakeProjects) Export(_ context.Context, name string) ([]byte, error) {
	p.f.mu.Lock()
	defer p.f.mu.Unlock()

	p.f.record("export %s", name)

	data, ok := p.f.projects[name]
	if !ok {
		return nil, &rundeck.APIError{StatusCode: 404, Message: "no such project"}
	}

	return append([]byte(nil), data...), nil
}

func (p fakeProjects) Import(_ context.Context, name string, archive []byte, opts *rundeck.ImportOptions) (*rundeck.ImportStatus, error) {
	p.f.mu.Lock()
	defer p.f.mu.Unlock()

	p.f.record("import %s", name)
	p.f.importOpts[name] = opts

	if status, ok := p.f.importStatus[name]; ok {
		delete(p.f.importStatus, name)

		return &rundeck.ImportStatus{Status: status}, &rundeck.ImportError{Project: name, Status: status}
	}

	p.f.projects[name] = append([]byte(nil), archive...)

	return &rundeck.ImportStatus{Status: rundeck.ImportStatusSuccessful}, nil
}

func (p fakeProjects) GetConfig(context.Context, string) (map[string]string, error) {
	return map[string]string{}, nil
}

func (p fakeProjects) SetConfig(_ context.Context, _ string, config map[string]string) (map[string]string, error) {
	return config, nil
}

func (p fakeProjects) SetConfigDocument(context.Context, string, []byte) (map[string]string, error) {
	return map[string]string{}, nil
}

type fakeJobs struct{ f *fakeInstance }

func (j fakeJobs) List(context.Context, string, *rundeck.JobFilter) ([]rundeck.Job, error) {
	return nil, nil
}

func (j fakeJobs) ListIDs(context.Context, string, *rundeck.JobFilter) ([]string, error) {
	return nil, nil
}

func (j fakeJobs) FindOne(_ context.Context, project, name string) (string, error) {
	return "", &rundeck.AmbiguousMatchError{Project: project, Name: name}
}

func (j fakeJobs) Run(context.Context, string, *rundeck.RunOptions) (*rundeck.RunResult, error) {
	return &rundeck.RunResult{}, nil
}

func (j fakeJobs) RunByName(context.Context, string, string, *rundeck.RunOptions) (*rundeck.RunResult, error) {
	return &rundeck.RunResult{}, nil
}

func (j fakeJobs) Delete(context.Context, []string) (*rundeck.BatchResult, error) {
	return &rundeck.BatchResult{}, nil
}

func (j fakeJobs) DeleteByGroup(context.Context, string, string) (*rundeck.BatchResult, error) {
	return &rundeck.BatchResult{}, nil
}

func (j fakeJobs) Export(_ context.Context, project string) ([]byte, error) {
	j.f.mu.Lock()
	defer j.f.mu.Unlock()

	j.f.record("jobs export %s", project)

	return j.f.jobs[project], nil
}

func (j fakeJobs) Import(_ context.Context, project string, definitions []byte, opts *rundeck.JobImportOptions) (*rundeck.JobImportResult, error) {
	j.f.mu.Lock()
	defer j.f.mu.Unlock()

	j.f.record("jobs import %s dupe=%s uuid=%s", project, opts.DupeOption, opts.UUIDOption)
	j.f.jobImports[project] = definitions

	return &rundeck.JobImportResult{
		Succeeded: []rundeck.JobImportEntry{{Name: "nightly", Project: project}},
	}, nil
}

type fakeExecutions struct{ f *fakeInstance }

func (e fakeExecutions) List(context.Context, string, *rundeck.ExecutionQuery) (*rundeck.ExecutionList, error) {
	return &rundeck.ExecutionList{}, nil
}

func (e fakeExecutions) ListIDs(_ context.Context, project string, query *rundeck.ExecutionQuery) ([]int64, error) {
	e.f.mu.Lock()
	defer e.f.mu.Unlock()

	e.f.executionEnd = query.End

	return e.f.executions[project], nil
}

func (e fakeExecutions) DeleteBatch(_ context.Context, ids []int64) (*rundeck.BulkDeleteResponse, error) {
	e.f.mu.Lock()
	defer e.f.mu.Unlock()

	e.f.record("executions delete %d", len(ids))

	resp := &rundeck.BulkDeleteResponse{RequestCount: len(ids)}

	for _, id := range ids {
		if e.f.failDelete[id] {
			resp.FailedCount++
			resp.Failures = append(resp.Failures, rundeck.BulkDeleteFailure{
				ID:      rundeck.FlexibleID(fmt.Sprint(id)),
				Message: "execution is running",
			})

			continue
		}

		resp.SuccessCount++
	}

	resp.AllSuccessful = resp.FailedCount == 0

	return resp, nil
}

func (e fakeExecutions) Delete(ctx context.Context, ids []int64) (rundeck.BatchResult, error) {
	return rundeck.DeleteInChunks(ctx, ids, rundeck.DefaultChunkSize, e.DeleteBatch)
}
