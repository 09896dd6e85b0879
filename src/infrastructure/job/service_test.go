package job_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"examgrader/src/infrastructure/job"
)

func startRouter(t *testing.T, svcFor func(pub *gochannel.GoChannel) *job.JobService) *job.JobService {
	t.Helper()
	logger := watermill.NopLogger{}
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, logger)
	svc := svcFor(pubSub)

	router, err := job.NewRouter(pubSub, svc, 0, logger)
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = router.Run(ctx)
	}()
	<-router.Running()

	t.Cleanup(func() {
		cancel()
		_ = router.Close()
		_ = pubSub.Close()
	})
	return svc
}

func waitForStatus(t *testing.T, svc *job.JobService, id int, want job.JobStatus) *job.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		j, err := svc.Get(context.Background(), id)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if j != nil && j.Status == want {
			return j
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %d did not reach status %s", id, want)
	return nil
}

func TestJobServiceProcessesJobs(t *testing.T) {
	repo := job.NewMemoryJobRepository()
	svc := startRouter(t, func(pub *gochannel.GoChannel) *job.JobService {
		svc := job.NewJobService(pub, repo, watermill.NopLogger{})
		svc.Register("echo", func(_ context.Context, payload json.RawMessage) (json.RawMessage, error) {
			return payload, nil
		})
		return svc
	})

	ok, err := svc.EnqueueJob(context.Background(), "echo", json.RawMessage(`{"grade":3}`))
	if err != nil {
		t.Fatalf("EnqueueJob() error = %v", err)
	}
	if ok.Status != job.JobStatusPending {
		t.Errorf("new job status = %s, want pending", ok.Status)
	}
	done := waitForStatus(t, svc, ok.ID, job.JobStatusCompleted)
	if string(done.Result) != `{"grade":3}` {
		t.Errorf("job result = %s", done.Result)
	}
}

func TestProcessJobMessageFailure(t *testing.T) {
	repo := job.NewMemoryJobRepository()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	svc := job.NewJobService(pubSub, repo, watermill.NopLogger{})
	svc.Register("fail", func(context.Context, json.RawMessage) (json.RawMessage, error) {
		return nil, errors.New("model unavailable")
	})

	j, err := repo.Create(context.Background(), "fail", json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	payload, _ := json.Marshal(job.JobMessage{JobID: j.ID, TaskType: "fail"})

	if err := svc.ProcessJobMessage(message.NewMessage(watermill.NewUUID(), payload)); err == nil {
		t.Fatalf("ProcessJobMessage() succeeded for a failing task")
	}

	failed, _ := repo.Get(context.Background(), j.ID)
	if failed.Status != job.JobStatusFailed {
		t.Errorf("status = %s, want failed", failed.Status)
	}
	if failed.Error == nil || *failed.Error != "model unavailable" {
		t.Errorf("job error = %v, want model unavailable", failed.Error)
	}
}

func TestEnqueueUnknownTask(t *testing.T) {
	repo := job.NewMemoryJobRepository()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	svc := job.NewJobService(pubSub, repo, watermill.NopLogger{})
	if _, err := svc.EnqueueJob(context.Background(), "translation", nil); err == nil {
		t.Errorf("EnqueueJob() accepted an unknown task type")
	}
}

func TestMemoryJobRepository(t *testing.T) {
	repo := job.NewMemoryJobRepository()
	ctx := context.Background()

	j, err := repo.Create(ctx, "grade_answer", json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if j.ID != 1 {
		t.Errorf("first job id = %d, want 1", j.ID)
	}
	if got, _ := repo.Get(ctx, 42); got != nil {
		t.Errorf("Get() of missing job = %+v, want nil", got)
	}
	if err := repo.UpdateStatus(ctx, 42, job.JobStatusRunning, nil); !errors.Is(err, job.ErrJobNotFound) {
		t.Errorf("UpdateStatus() error = %v, want ErrJobNotFound", err)
	}
}
