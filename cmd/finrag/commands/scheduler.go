package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/finrag-metrics/internal/scheduler"
	"github.com/wonny/finrag-metrics/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행
  status  - 작업 실행 상태 조회

Example:
  go run ./cmd/finrag scheduler start
  go run ./cmd/finrag scheduler list
  go run ./cmd/finrag scheduler run analytical_layer`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- analytical_layer: 매일 06:00 (PIPELINE_SCHEDULE로 변경)
- temp_cleanup: 매시 30분 (중단된 쓰기의 임시 파일 정리)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "작업 실행 상태 조회",
		RunE:  showStatus,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== FinRAG Analytical Layer Scheduler ===")

	sched, a, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	printJobs(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	sched, a, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	printJobs(sched)
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	sched, a, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := sched.RunJobSync(ctx, jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}
	if !result.Success {
		PrintError(fmt.Sprintf("%s failed after %s: %s", jobName, result.Duration.Round(time.Millisecond), result.Error))
		return fmt.Errorf("job %s failed", jobName)
	}

	PrintSuccess(fmt.Sprintf("%s completed in %s", jobName, result.Duration.Round(time.Millisecond)))
	return nil
}

// showStatus prints the statistics kept by this process's scheduler
func showStatus(cmd *cobra.Command, args []string) error {
	sched, a, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	stats := sched.GetJobStats()
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("Job Statistics:")
	fmt.Println()

	for _, jobName := range names {
		stat := stats[jobName]
		fmt.Printf("📊 %s\n", jobName)
		fmt.Printf("   Schedule: %s\n", stat.Schedule)
		if next, ok := sched.NextRun(jobName); ok {
			fmt.Printf("   Next Run: %s\n", next.Format("2006-01-02 15:04:05"))
		}
		fmt.Printf("   Total Runs: %d\n", stat.TotalRuns)
		fmt.Printf("   Success: %d (%.1f%%)\n", stat.SuccessCount, stat.SuccessRate*100)
		fmt.Printf("   Failures: %d\n", stat.FailureCount)

		if stat.LastRun != nil {
			fmt.Printf("   Last Run: %s\n", stat.LastRun.Format("2006-01-02 15:04:05"))
		}

		fmt.Println()
	}

	// Latest persisted run, when the database mirror is on
	if a.runs != nil {
		if latest, err := a.runs.Latest(context.Background()); err == nil {
			fmt.Printf("Last analytical layer run: %s (%s, %s)\n", latest.RunID, latest.Status(), latest.Reason)
		}
	}

	return nil
}

func printJobs(sched *scheduler.Scheduler) {
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		line := jobName
		if next, ok := sched.NextRun(jobName); ok {
			line = fmt.Sprintf("%s (next: %s)", jobName, next.Format("2006-01-02 15:04:05"))
		}
		PrintList([]string{line})
	}
}

func initScheduler() (*scheduler.Scheduler, *app, error) {
	// 1. Load config and logger
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	// 2. Wire the pipeline
	a, err := newApp(context.Background(), cfg, log, appOptions{Upload: true, Email: true})
	if err != nil {
		notifyStartupFailure(cfg, log, err)
		return nil, nil, err
	}

	// 3. Create scheduler (2 retries, 5 minutes apart)
	sched := scheduler.NewWithRetry(log, 2, 5*time.Minute)

	// 4. Register jobs
	layerJob := jobs.NewAnalyticalLayerJob(a.runner, cfg.Pipeline.Schedule, cfg.Pipeline.RunYear, log)
	if err := sched.AddJob(layerJob); err != nil {
		a.Close()
		return nil, nil, err
	}
	if err := sched.AddJob(jobs.NewTempCleanupJob(cfg.Pipeline.BaseDir, time.Hour, log)); err != nil {
		a.Close()
		return nil, nil, err
	}

	return sched, a, nil
}
