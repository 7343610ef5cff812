package commands

import (
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/rundeck-admin/internal/constants"
	"github.com/fivetwenty-io/rundeck-admin/pkg/archive"
	"github.com/fivetwenty-io/rundeck-admin/pkg/workflow"
)

func newProjectsReplicateCommand() *cobra.Command {
	var (
		tokenFile   string
		rollbackDir string
	)

	cmd := &cobra.Command{
		Use:   "replicate-from-instance SOURCE_ENDPOINT [SOURCE_TOKEN]",
		Short: "Replicate all projects from another instance",
		Long: `Export every project of SOURCE_ENDPOINT and import it into the configured
instance with its execution history. Every project of the configured instance
is deleted first, including projects the source does not have.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			config := loadConfig()

			if config.Endpoint == "" {
				return constants.ErrNoEndpointConfigured
			}

			err := ensureDistinct(args[0], config.Endpoint)
			if err != nil {
				return err
			}

			sourceToken := ""
			if len(args) == 2 {
				sourceToken = args[1]
			}

			source, err := createClientFor(ctx, cmd, args[0], sourceToken, tokenFile)
			if err != nil {
				return fmt.Errorf("failed to connect to source: %w", err)
			}

			destination, err := createClient(ctx, cmd)
			if err != nil {
				return err
			}

			runner, closeRunner, err := newRunner(cmd)
			if err != nil {
				return err
			}
			defer closeRunner()

			staging, cleanup, err := stagingDir()
			if err != nil {
				return err
			}
			defer cleanup()

			opts := workflow.ReplicateOptions()
			opts.StagingDir = staging
			opts.RollbackDir = rollbackDir

			imported, err := runner.Transfer(ctx, source, destination, opts)
			if err != nil {
				return fmt.Errorf("failed to replicate projects: %w", err)
			}

			return writeNames(cmd, "Project", imported)
		},
	}

	cmd.Flags().StringVar(&tokenFile, "source-token-file", "", "file holding the source instance token")
	cmd.Flags().StringVar(&rollbackDir, "rollback-dir", "", "snapshot destination projects here before deleting them")

	return cmd
}

func newProjectsPromoteCommand() *cobra.Command {
	var (
		targetToken     string
		targetTokenFile string
	)

	cmd := &cobra.Command{
		Use:   "promote-to-instance PROJECT_NAME TARGET_ENDPOINT",
		Short: "Promote a project to another instance",
		Long: `Export PROJECT_NAME from the configured instance and import it into
TARGET_ENDPOINT. The target project is neither deleted nor given the
execution history.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			project, targetEndpoint := args[0], args[1]
			config := loadConfig()

			if config.Endpoint == "" {
				return constants.ErrNoEndpointConfigured
			}

			err := ensureDistinct(config.Endpoint, targetEndpoint)
			if err != nil {
				return err
			}

			source, err := createClient(ctx, cmd)
			if err != nil {
				return err
			}

			target, err := createClientFor(ctx, cmd, targetEndpoint, targetToken, targetTokenFile)
			if err != nil {
				return fmt.Errorf("failed to connect to target: %w", err)
			}

			runner, closeRunner, err := newRunner(cmd)
			if err != nil {
				return err
			}
			defer closeRunner()

			staging, cleanup, err := stagingDir()
			if err != nil {
				return err
			}
			defer cleanup()

			opts := workflow.PromoteOptions(project)
			opts.StagingDir = staging

			_, err = runner.Transfer(ctx, source, target, opts)
			if err != nil {
				return fmt.Errorf("failed to promote project: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Project %s promoted to %s\n", project, target.Instance())

			return nil
		},
	}

	cmd.Flags().StringVar(&targetToken, "target-token", "", "target instance token (default is the configured token)")
	cmd.Flags().StringVar(&targetTokenFile, "target-token-file", "", "file holding the target instance token")

	return cmd
}

func newProjectsUnzipToRepoCommand() *cobra.Command {
	var (
		archivesDir   string
		repoDir       string
		exclude       string
		failOnMissing bool
	)

	cmd := &cobra.Command{
		Use:   "unzip-to-repo",
		Short: "Unpack project archives into a repository",
		Long: `Unpack every <project>.zip of --archives-dir into <repo-dir>/<project>.
When repo-dir is a git working tree, the export date and generated comments
are stripped so successive exports diff cleanly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if repoDir == "" {
				return constants.ErrRepositoryDirRequired
			}

			var pattern *regexp.Regexp

			if exclude != "" {
				compiled, err := regexp.Compile(exclude)
				if err != nil {
					return fmt.Errorf("invalid --exclude pattern: %w", err)
				}

				pattern = compiled
			}

			policy := archive.MissingIgnore
			if failOnMissing {
				policy = archive.MissingFail
			}

			runner, closeRunner, err := newRunner(cmd, workflow.WithMissingPolicy(policy))
			if err != nil {
				return err
			}
			defer closeRunner()

			unpacked, err := runner.UnpackToRepository(cmd.Context(), archivesDir, repoDir, pattern)
			if err != nil {
				return fmt.Errorf("failed to unpack archives: %w", err)
			}

			return writeNames(cmd, "Directory", unpacked)
		},
	}

	cmd.Flags().StringVar(&archivesDir, "archives-dir", ".", "directory holding <project>.zip files")
	cmd.Flags().StringVar(&repoDir, "repo-dir", "", "repository directory to unpack into")
	cmd.Flags().StringVar(&exclude, "exclude", "", "regular expression of archive entries to skip")
	cmd.Flags().BoolVar(&failOnMissing, "fail-on-missing", false, "fail when a file to sanitize is absent")

	return cmd
}

func newProjectsZipDirsCommand() *cobra.Command {
	var (
		projectsDir string
		destDir     string
	)

	cmd := &cobra.Command{
		Use:   "zip-dirs",
		Short: "Pack project directories into zip files",
		Long:  "Compress every sub-directory of --projects-dir into <dest-dir>/<name>.zip",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if destDir == "" {
				return constants.ErrDestinationRequired
			}

			runner, closeRunner, err := newRunner(cmd)
			if err != nil {
				return err
			}
			defer closeRunner()

			written, err := runner.PackDirectories(cmd.Context(), projectsDir, destDir)
			if err != nil {
				return fmt.Errorf("failed to pack directories: %w", err)
			}

			return writePaths(cmd, written)
		},
	}

	cmd.Flags().StringVar(&projectsDir, "projects-dir", ".", "directory holding one sub-directory per project")
	cmd.Flags().StringVar(&destDir, "to", "", "directory to write archives to")

	return cmd
}
