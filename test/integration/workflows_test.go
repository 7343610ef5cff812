//go:build integration

package integration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
)

// ProjectsIntegrationTestSuite exercises project workflows against a live
// Rundeck instance.
type ProjectsIntegrationTestSuite struct {
	suite.Suite

	runner  *CommandRunner
	project string
}

func (s *ProjectsIntegrationTestSuite) SetupTest() {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(s.T())

	s.runner = NewCommandRunner(config, s.T())
	s.project = GenerateTestName("rdadmin-it")

	_, stderr, err := s.runner.Run("projects", "create", s.project)
	s.Require().NoError(err, "Failed to create project: %s", stderr)
}

func (s *ProjectsIntegrationTestSuite) TearDownTest() {
	if s.runner != nil {
		s.runner.CleanupProject(s.project)
	}
}

func (s *ProjectsIntegrationTestSuite) TestExportDeleteImport() {
	dir := s.T().TempDir()

	_, stderr, err := s.runner.Run("projects", "export", s.project, "--dir", dir)
	s.Require().NoError(err, "Failed to export project: %s", stderr)

	_, err = os.Stat(filepath.Join(dir, s.project+".zip"))
	s.Require().NoError(err)

	_, stderr, err = s.runner.Run("projects", "delete", s.project, "--force")
	s.Require().NoError(err, "Failed to delete project: %s", stderr)
	s.NotContains(s.runner.ProjectNames(), s.project)

	_, stderr, err = s.runner.Run("projects", "import", dir)
	s.Require().NoError(err, "Failed to import project: %s", stderr)
	s.Contains(s.runner.ProjectNames(), s.project)
}

func (s *ProjectsIntegrationTestSuite) TestConfigSetAndGet() {
	_, stderr, err := s.runner.Run("projects", "config", "set", s.project,
		"project.name="+s.project, "project.description=integration")
	s.Require().NoError(err, "Failed to set config: %s", stderr)

	stdout, stderr, err := s.runner.Run("projects", "config", "get", s.project, "--output", "json")
	s.Require().NoError(err, "Failed to get config: %s", stderr)
	s.Contains(stdout, `"project.description": "integration"`)
}

func (s *ProjectsIntegrationTestSuite) TestBackupAndRestore() {
	backup := filepath.Join(s.T().TempDir(), "backup.zip")

	_, stderr, err := s.runner.Run("projects", "backup-to-file", backup)
	s.Require().NoError(err, "Failed to back up: %s", stderr)

	_, stderr, err = s.runner.Run("projects", "restore-from-file", backup)
	s.Require().NoError(err, "Failed to restore: %s", stderr)
	s.Contains(s.runner.ProjectNames(), s.project)
}

func (s *ProjectsIntegrationTestSuite) TestPurgeExecutions() {
	stdout, stderr, err := s.runner.Run("executions", "purge", "--days-to-keep", "3650", "--output", "json")
	s.Require().NoError(err, "Failed to purge executions: %s", stderr)
	s.Contains(stdout, `"requested"`)
}

func TestProjectsIntegration(t *testing.T) {
	suite.Run(t, new(ProjectsIntegrationTestSuite))
}
