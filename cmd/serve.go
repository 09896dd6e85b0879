package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill-amqp/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	httpHdlr "examgrader/handler/http"
	"examgrader/src/fsutil"
	"examgrader/src/infrastructure/job"
	"examgrader/src/jobctrl"
	"examgrader/src/log"
	"examgrader/src/storage/postgres/gradectrl"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the grading HTTP API",
	Long: `The serve command starts an HTTP server for answer extraction, grade
parsing and grading. Without amqp.url grading jobs run inside the server;
otherwise they are published for the worker command.`,
	PreRun: func(cmd *cobra.Command, args []string) {
		bindFlags(cmd, modelFlagKeys)
		bindFlags(cmd, map[string]string{
			"port":  "server.port",
			"shots": "grading.shots",
		})
	},
	RunE: RunServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	addModelFlags(serveCmd)
	serveCmd.Flags().String("port", "", "listen port")
	serveCmd.Flags().String("shots", "", "JSON file with worked grading examples")
	serveCmd.Flags().Bool("store", false, "store grading runs in postgres")
}

func RunServer(cmd *cobra.Command, args []string) error {
	store, _ := cmd.Flags().GetBool("store")
	logger := log.NewWatermillAdapter()
	fs := fsutil.NewLocalFileStore()

	llm, err := newLLMProvider()
	if err != nil {
		return err
	}
	flow, err := newGradeFlow(fs, llm)
	if err != nil {
		return err
	}

	objects, err := newMinioService()
	if err != nil {
		return err
	}

	amqpURL := viper.GetString("amqp.url")
	var (
		recorder  jobctrl.Recorder
		publisher message.Publisher
		repo      job.JobRepository
		inProcess *gochannel.GoChannel
	)

	if store || amqpURL != "" {
		db, closeDB, err := openDB()
		if err != nil {
			return err
		}
		defer closeDB()

		if store {
			grades, err := gradectrl.NewGradeService(db)
			if err != nil {
				return err
			}
			if err := grades.AutoMigrate(); err != nil {
				return err
			}
			recorder = grades
		}

		if amqpURL != "" {
			pgRepo := job.NewPostgresJobRepository(db)
			if err := pgRepo.AutoMigrate(); err != nil {
				return err
			}
			repo = pgRepo
		}
	}

	if amqpURL == "" {
		inProcess = gochannel.NewGoChannel(gochannel.Config{}, logger)
		defer inProcess.Close()
		publisher = inProcess
		repo = job.NewMemoryJobRepository()
	} else {
		amqpPublisher, err := amqp.NewPublisher(amqp.NewDurableQueueConfig(amqpURL), logger)
		if err != nil {
			return err
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
	}

	jobService := job.NewJobService(publisher, repo, logger)
	jobctrl.NewGradeTask(flow, fs, objects, recorder).Register(jobService)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if inProcess != nil {
		router, err := job.NewRouter(inProcess, jobService, viper.GetInt("worker.max_retries"), logger)
		if err != nil {
			return err
		}
		go func() {
			if err := router.Run(ctx); err != nil {
				log.Error(err, "job router stopped")
			}
		}()
		<-router.Running()
		log.Info("running grading jobs in process")
	}

	examsDir := viper.GetString("exams.root")
	if examsDir == "" {
		log.Info("exams.root is not set, transcript grading jobs will be rejected")
	}
	handler := httpHdlr.NewHandler(flow,
		httpHdlr.WithJobQueue(jobService),
		httpHdlr.WithLocalRoots(examsDir, viper.GetString("output.dir"), viper.GetString("output.dir_cm")),
	)

	// Setup gin router
	r := gin.New()
	r.Use(gin.Recovery())
	handler.RegisterRoutes(r)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + viper.GetString("server.port"),
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		log.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(err, "Failed to start server")
			cancel()
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	log.Info("Shutting down server...")

	// Parse shutdown timeout
	timeout, err := time.ParseDuration(viper.GetString("server.shutdown_timeout"))
	if err != nil {
		log.Error(err, "Invalid shutdown timeout, using default 5s")
		timeout = 5 * time.Second
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "Server forced to shutdown")
	}

	log.Info("Server exited")
	return nil
}
