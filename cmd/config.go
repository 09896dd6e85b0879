package cmd

import "github.com/spf13/viper"

func settingDefaultConfig() {
	// Enable automatic environment variable binding
	viper.AutomaticEnv()

	// Logging
	viper.BindEnv("log.development", "LOG_DEVELOPMENT")
	viper.BindEnv("log.verbosity", "LOG_VERBOSITY")
	viper.SetDefault("log.development", true)
	viper.SetDefault("log.verbosity", 0)

	// Answering and grading model
	viper.BindEnv("llm.server_type", "LLM_SERVER_TYPE")
	viper.BindEnv("llm.server_url", "LLM_SERVER_URL")
	viper.BindEnv("llm.model", "LLM_MODEL")
	viper.BindEnv("llm.name", "LLM_NAME")
	viper.BindEnv("llm.api_key", "LLM_API_KEY")
	viper.BindEnv("llm.seed", "LLM_SEED")
	viper.BindEnv("llm.temperature", "LLM_TEMPERATURE")
	viper.BindEnv("llm.timeout", "LLM_TIMEOUT")
	viper.SetDefault("llm.server_type", "openai")
	viper.SetDefault("llm.server_url", "openai")
	viper.SetDefault("llm.model", "gpt-3.5-turbo-0125")
	viper.SetDefault("llm.name", "gpt35")
	viper.SetDefault("llm.seed", 0)
	viper.SetDefault("llm.temperature", 0.0)
	viper.SetDefault("llm.timeout", "5m")

	// Grading prompt
	viper.BindEnv("grading.shots", "GRADING_SHOTS")
	viper.BindEnv("grading.with_ref", "GRADING_WITH_REF")
	viper.SetDefault("grading.with_ref", true)

	// Figures
	viper.BindEnv("figures.stack", "FIGURES_STACK")
	viper.SetDefault("figures.stack", false)

	// Course material retrieval
	viper.BindEnv("embedding.model", "EMBEDDING_MODEL")
	viper.BindEnv("retrieval.backend", "RETRIEVAL_BACKEND")
	viper.BindEnv("retrieval.top_k", "RETRIEVAL_TOP_K")
	viper.BindEnv("retrieval.alpha", "RETRIEVAL_ALPHA")
	viper.BindEnv("course_material.path", "COURSE_MATERIAL_PATH")
	viper.BindEnv("course_material.header_word", "COURSE_MATERIAL_HEADER_WORD")
	viper.BindEnv("course_material.window", "COURSE_MATERIAL_WINDOW")
	viper.SetDefault("embedding.model", "bge-large")
	viper.SetDefault("retrieval.backend", "weaviate")
	viper.SetDefault("retrieval.top_k", 10)
	viper.SetDefault("retrieval.alpha", 0.5)
	viper.SetDefault("course_material.path", "course_material")
	viper.SetDefault("course_material.header_word", "")
	viper.SetDefault("course_material.window", 5)

	// Exams and reports
	viper.BindEnv("exams.root", "EXAMS_ROOT")
	viper.BindEnv("output.dir", "OUTPUT_DIR")
	viper.BindEnv("output.dir_cm", "OUTPUT_DIR_CM")
	viper.SetDefault("output.dir", "llm_out")
	viper.SetDefault("output.dir_cm", "llm_out_cm")

	// Map environment variables to Viper keys for PostgreSQL
	viper.BindEnv("postgres.host", "POSTGRES_HOST")
	viper.BindEnv("postgres.port", "POSTGRES_PORT")
	viper.BindEnv("postgres.user", "POSTGRES_USER")
	viper.BindEnv("postgres.password", "POSTGRES_PASSWORD")
	viper.BindEnv("postgres.db", "POSTGRES_DB")
	viper.SetDefault("postgres.host", "localhost")
	viper.SetDefault("postgres.port", "5432")
	viper.SetDefault("postgres.user", "postgres")
	viper.SetDefault("postgres.password", "postgres")
	viper.SetDefault("postgres.db", "examgrader")

	// MinIO report store
	viper.BindEnv("minio.endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("minio.access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("minio.secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("minio.use_ssl", "MINIO_USE_SSL")
	viper.BindEnv("minio.upload", "MINIO_UPLOAD")
	viper.SetDefault("minio.endpoint", "localhost:9000")
	viper.SetDefault("minio.access_key", "minioadmin")
	viper.SetDefault("minio.secret_key", "minioadmin")
	viper.SetDefault("minio.use_ssl", false)
	viper.SetDefault("minio.upload", false)

	// Server
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.shutdown_timeout", "SERVER_SHUTDOWN_TIMEOUT")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.shutdown_timeout", "5s")

	// Jobs. An empty AMQP URL runs jobs in process.
	viper.BindEnv("amqp.url", "AMQP_URL")
	viper.BindEnv("worker.max_retries", "WORKER_MAX_RETRIES")
	viper.SetDefault("amqp.url", "")
	viper.SetDefault("worker.max_retries", 3)

	// Set default values for Unstructured API
	viper.BindEnv("unstructured.url", "UNSTRUCTURED_API_URL")
	viper.SetDefault("unstructured.url", "http://unstructured_api:8000")

	viper.BindEnv("weaviate.host", "WEAVIATE_HOST")
	viper.BindEnv("weaviate.scheme", "WEAVIATE_SCHEME")
	viper.SetDefault("weaviate.host", "weaviate:8080")
	viper.SetDefault("weaviate.scheme", "http")

	viper.BindEnv("elasticsearch.url", "ELASTICSEARCH_URL")
	viper.SetDefault("elasticsearch.url", "http://elasticsearch:9200")

	viper.BindEnv("ollama.url", "OLLAMA_URL")
	viper.SetDefault("ollama.url", "http://ollama:11434/api")
}
