package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/spf13/viper"
	weaviateClient "github.com/weaviate/weaviate-go-client/v4/weaviate"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"examgrader/src/core/coursematerial"
	"examgrader/src/core/exam"
	"examgrader/src/core/examflow"
	"examgrader/src/core/prompts"
	"examgrader/src/fsutil"
	"examgrader/src/infrastructure/integrations/langchain"
	"examgrader/src/infrastructure/integrations/ollama"
	"examgrader/src/infrastructure/integrations/unstructured"
	"examgrader/src/log"
	"examgrader/src/storage/elastic"
	"examgrader/src/storage/minioctrl"
	"examgrader/src/storage/weaviate"
)

// courseIndex is implemented by the weaviate and elasticsearch stores.
type courseIndex interface {
	coursematerial.Index
	Retriever(collection string) coursematerial.Retriever
}

func newOllamaClient(baseURL string) (*ollama.Client, error) {
	return ollama.NewClient(baseURL, &http.Client{
		Timeout: viper.GetDuration("llm.timeout"),
	})
}

// newLLMProvider builds the model backend selected by llm.server_type.
func newLLMProvider() (examflow.LLMProvider, error) {
	serverType := viper.GetString("llm.server_type")
	log.Info("using model", "server_type", serverType, "model", viper.GetString("llm.model"))

	if serverType == langchain.ServerOllama {
		baseURL := viper.GetString("ollama.url")
		if u := viper.GetString("llm.server_url"); u != "" && u != langchain.ServerOpenAI {
			baseURL = u
		}
		client, err := newOllamaClient(baseURL)
		if err != nil {
			return nil, err
		}
		return ollama.NewProvider(client, viper.GetString("llm.model"), map[string]interface{}{
			"seed":        viper.GetInt("llm.seed"),
			"temperature": viper.GetFloat64("llm.temperature"),
		}), nil
	}

	return langchain.New(langchain.Config{
		ServerType:  serverType,
		ServerURL:   viper.GetString("llm.server_url"),
		Model:       viper.GetString("llm.model"),
		Token:       viper.GetString("llm.api_key"),
		Seed:        viper.GetInt("llm.seed"),
		Temperature: viper.GetFloat64("llm.temperature"),
	})
}

func openDB() (*gorm.DB, func(), error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		viper.GetString("postgres.host"),
		viper.GetString("postgres.user"),
		viper.GetString("postgres.password"),
		viper.GetString("postgres.db"),
		viper.GetString("postgres.port"))
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get underlying *sql.DB: %w", err)
	}
	closeFn := func() {
		if err := sqlDB.Close(); err != nil {
			log.Error(err, "Error closing database connection")
		}
	}
	return db, closeFn, nil
}

func newMinioService() (*minioctrl.MinioService, error) {
	return minioctrl.NewMinioService(
		viper.GetString("minio.endpoint"),
		viper.GetString("minio.access_key"),
		viper.GetString("minio.secret_key"),
		viper.GetBool("minio.use_ssl"),
	)
}

// newCourseIndex builds the store selected by retrieval.backend.
func newCourseIndex() (courseIndex, error) {
	switch backend := viper.GetString("retrieval.backend"); backend {
	case "weaviate":
		wc, err := weaviateClient.NewClient(weaviateClient.Config{
			Host:   viper.GetString("weaviate.host"),
			Scheme: viper.GetString("weaviate.scheme"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create weaviate client: %w", err)
		}
		oc, err := newOllamaClient(viper.GetString("ollama.url"))
		if err != nil {
			return nil, err
		}
		embedder := ollama.NewEmbedder(oc, viper.GetString("embedding.model"))
		return weaviate.NewCourseIndex(weaviate.NewSDK(wc), embedder, float32(viper.GetFloat64("retrieval.alpha"))), nil

	case "elastic", "elasticsearch":
		es, err := elastic.NewClient(viper.GetString("elasticsearch.url"))
		if err != nil {
			return nil, err
		}
		return elastic.NewCourseIndex(es), nil

	default:
		return nil, fmt.Errorf("unknown retrieval backend %q", backend)
	}
}

func newCourseLoader(fs fsutil.FileStore) *coursematerial.Loader {
	opts := []coursematerial.LoaderOption{
		coursematerial.WithCleaner(coursematerial.NewCleaner(viper.GetString("course_material.header_word"))),
		coursematerial.WithWindowSize(viper.GetInt("course_material.window")),
	}
	if u := viper.GetString("unstructured.url"); u != "" {
		opts = append(opts, coursematerial.WithPageExtractor(unstructured.NewUnstructuredService(u, nil)))
	}
	return coursematerial.NewLoader(fs, opts...)
}

// indexCourseMaterial loads the course material of e into the configured
// store and returns a retriever over it.
func indexCourseMaterial(ctx context.Context, fs fsutil.FileStore, e *exam.Exam) (coursematerial.Retriever, error) {
	nodes, err := newCourseLoader(fs).Load(ctx, viper.GetString("course_material.path"), e.Name, e.Lang)
	if err != nil {
		return nil, err
	}

	index, err := newCourseIndex()
	if err != nil {
		return nil, err
	}
	collection := coursematerial.CollectionName(e.Name, e.Lang)
	if err := index.Build(ctx, collection, nodes); err != nil {
		return nil, fmt.Errorf("failed to index course material: %w", err)
	}
	log.Info("indexed course material", "collection", collection, "nodes", len(nodes))
	return index.Retriever(collection), nil
}

// examsRoot is the directory holding one subdirectory per exam. It defaults
// to the grandparent of the exam file.
func examsRoot(examPath string) string {
	if root := viper.GetString("exams.root"); root != "" {
		return root
	}
	return filepath.Dir(filepath.Dir(examPath))
}

func loadShots(fs fsutil.FileStore, path string) ([]prompts.Shot, error) {
	if path == "" {
		return nil, nil
	}
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read shots %s: %w", path, err)
	}
	var shots []prompts.Shot
	if err := json.Unmarshal(data, &shots); err != nil {
		return nil, fmt.Errorf("failed to parse shots %s: %w", path, err)
	}
	return shots, nil
}

// newGradeFlow builds the grading flow from the grading.* settings.
func newGradeFlow(fs fsutil.FileStore, llm examflow.LLMProvider, extra ...examflow.GradeOption) (*examflow.GradeFlow, error) {
	shots, err := loadShots(fs, viper.GetString("grading.shots"))
	if err != nil {
		return nil, err
	}
	opts := append([]examflow.GradeOption{
		examflow.WithShots(shots),
		examflow.WithReference(viper.GetBool("grading.with_ref")),
	}, extra...)
	return examflow.NewGradeFlow(llm, opts...), nil
}
