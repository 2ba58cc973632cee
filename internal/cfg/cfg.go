package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/furniture-recs/pkg/e"
	"github.com/DRSN-tech/furniture-recs/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/joho/godotenv"
)

type Config struct {
	Http     *HTTPConfig
	Grpc     *GRPCConfig
	Qdrant   *QdrantCfg
	Embedder *EmbedderCfg
	GenAI    *GenAICfg
	Catalog  *CatalogCfg
	Minio    *MinIOCfg   // nil, если MinIO не настроен
	Db       *PGDBCfg    // nil, если журнал загрузок отключён
	Redis    *RedisCfg   // nil, если статистика запросов отключена
	Kafka    *KafkaCfg   // nil, если события не публикуются
}

type HTTPConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
}

type GRPCConfig struct {
	Port        string
	NetworkMode string
}

type QdrantCfg struct {
	Port       int
	Host       string
	ApiKey     string
	UseTLS     bool
	IndexName  string // имя коллекции в Qdrant
	VectorSize uint64
	Metric     string // cosine | dot | euclid
}

// EmbedderCfg описывает модель эмбеддингов.
type EmbedderCfg struct {
	Type      string // http | onnx
	BaseURL   string
	ApiKey    string
	Model     string
	Timeout   time.Duration
	ModelPath string
	VocabPath string
	MaxTokens int
}

type GenAICfg struct {
	ApiKey        string
	Model         string
	Timeout       time.Duration
	MaxConcurrent int
}

type CatalogCfg struct {
	Path string // локальный путь или s3://bucket/key
}

type MinIOCfg struct {
	MinioEndpoint     string // Адрес конечной точки Minio
	MinioRootUser     string // Имя пользователя для доступа к Minio
	MinioRootPassword string // Пароль для доступа к Minio
	MinioUseSSL       bool
}

type PGDBCfg struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	MigrationsURL string // источник миграций golang-migrate
}

// DSN возвращает строку подключения к PostgreSQL.
func (c *PGDBCfg) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

type RedisCfg struct {
	Addr        string
	Password    string
	User        string
	DB          int
	DialTimeout time.Duration
	Timeout     time.Duration
	StatsKey    string
}

type KafkaCfg struct {
	Topic             string
	Brokers           []string
	WriteTimeout      time.Duration
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
}

// Load безопасно загружает конфигурацию сервера и возвращает ошибку в случае неудачи.
func Load(log logger.Logger) (*Config, error) {
	loadDotEnv(log)

	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	qdrant, err := loadQdrantCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	embedder, err := loadEmbedderCfg(log, qdrant.VectorSize)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	genAI, err := loadGenAICfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	catalog, err := loadCatalogCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minio, err := loadMinIOCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		Http:     http,
		Grpc:     loadGRPCConfig(),
		Qdrant:   qdrant,
		Embedder: embedder,
		GenAI:    genAI,
		Catalog:  catalog,
		Minio:    minio,
		Redis:    redis,
	}, nil
}

// LoadIngest загружает конфигурацию офлайн-загрузки каталога.
// Генеративная модель и HTTP здесь не нужны, зато подключаются журнал и Kafka.
func LoadIngest(log logger.Logger) (*Config, error) {
	loadDotEnv(log)

	qdrant, err := loadQdrantCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	embedder, err := loadEmbedderCfg(log, qdrant.VectorSize)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	catalog, err := loadCatalogCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minio, err := loadMinIOCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	db, err := loadPGDBCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	kafka, err := loadKafkaCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		Qdrant:   qdrant,
		Embedder: embedder,
		Catalog:  catalog,
		Minio:    minio,
		Db:       db,
		Kafka:    kafka,
	}, nil
}

// loadDotEnv подгружает .env (если есть). Уже заданные переменные окружения не перезаписываются.
func loadDotEnv(log logger.Logger) {
	path := getEnvOrDefault("ENV_FILE", ".env")
	if _, err := os.Stat(path); err != nil {
		return
	}

	if err := godotenv.Load(path); err != nil {
		log.Warnf("failed to load %s: %v", path, err)
	}
}

func loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultPort         = "8000"
		defaultReadTimeout  = 5 * time.Second
		defaultWriteTimeout = 60 * time.Second
		defaultIdleTimeout  = 60 * time.Second
		defaultOrigins      = "http://localhost:3000"
	)

	port := getEnvOrDefault("HTTP_PORT", defaultPort)

	readTimeout, err := parseDurationEnv("HTTP_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_READ_TIMEOUT")
		return nil, err
	}

	// Один запрос /api/recommend делает до top_k генераций, поэтому таймаут записи длиннее, чем чтения
	writeTimeout, err := parseDurationEnv("HTTP_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	return &HTTPConfig{
		Port:           port,
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,
		IdleTimeout:    idleTimeout,
		AllowedOrigins: splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", defaultOrigins)),
	}, nil
}

func loadGRPCConfig() *GRPCConfig {
	const (
		defaultPort        = "8091"
		defaultNetworkMode = "tcp"
	)

	return &GRPCConfig{
		Port:        getEnvOrDefault("GRPC_PORT", defaultPort),
		NetworkMode: getEnvOrDefault("GRPC_NETWORK_MODE", defaultNetworkMode),
	}
}

func loadQdrantCfg(log logger.Logger) (*QdrantCfg, error) {
	const (
		defaultHost           = "localhost"
		defaultQdrantGRPCPort = 6334
		defaultUseTLS         = false
		defaultIndexName      = "furniture-products"
		defaultVectorSize     = 384
		defaultMetric         = "cosine"
	)

	port, err := parseIntEnv("QDRANT_GRPC_PORT", defaultQdrantGRPCPort)
	if err != nil {
		log.Errorf(err, "invalid QDRANT_GRPC_PORT")
		return nil, err
	}

	useTLS, err := parseBoolEnv("QDRANT_USE_TLS", defaultUseTLS)
	if err != nil {
		log.Errorf(err, "invalid QDRANT_USE_TLS")
		return nil, err
	}

	vectorSize, err := parseIntEnv("VECTOR_SIZE", defaultVectorSize)
	if err != nil || vectorSize <= 0 {
		log.Errorf(err, "invalid VECTOR_SIZE")
		return nil, e.Wrap("VECTOR_SIZE", e.ErrIncorrectEnvVariable)
	}

	metric := strings.ToLower(getEnvOrDefault("INDEX_METRIC", defaultMetric))
	switch metric {
	case "cosine", "dot", "euclid":
	default:
		return nil, e.Wrap("INDEX_METRIC", e.ErrIncorrectEnvVariable)
	}

	return &QdrantCfg{
		Host:       getEnvOrDefault("QDRANT_HOST", defaultHost),
		Port:       port,
		ApiKey:     strings.TrimSpace(getEnv("QDRANT_API_KEY")),
		UseTLS:     useTLS,
		IndexName:  getEnvOrDefault("INDEX_NAME", defaultIndexName),
		VectorSize: uint64(vectorSize),
		Metric:     metric,
	}, nil
}

func loadEmbedderCfg(log logger.Logger, vectorSize uint64) (*EmbedderCfg, error) {
	const (
		defaultType      = "http"
		defaultBaseURL   = "http://localhost:8080/v1"
		defaultModel     = "sentence-transformers/all-MiniLM-L6-v2"
		defaultTimeout   = 30 * time.Second
		defaultMaxTokens = 128
	)

	timeout, err := parseDurationEnv("EMBEDDER_TIMEOUT", defaultTimeout)
	if err != nil {
		log.Errorf(err, "invalid EMBEDDER_TIMEOUT")
		return nil, err
	}

	maxTokens, err := parseIntEnv("ONNX_MAX_TOKENS", defaultMaxTokens)
	if err != nil {
		log.Errorf(err, "invalid ONNX_MAX_TOKENS")
		return nil, err
	}

	cfg := &EmbedderCfg{
		Type:      strings.ToLower(getEnvOrDefault("EMBEDDER_TYPE", defaultType)),
		BaseURL:   getEnvOrDefault("EMBEDDER_BASE_URL", defaultBaseURL),
		ApiKey:    strings.TrimSpace(getEnv("EMBEDDER_API_KEY")),
		Model:     getEnvOrDefault("EMBEDDER_MODEL", defaultModel),
		Timeout:   timeout,
		ModelPath: getEnv("ONNX_MODEL_PATH"),
		VocabPath: getEnv("ONNX_VOCAB_PATH"),
		MaxTokens: maxTokens,
	}

	switch cfg.Type {
	case "http":
	case "onnx":
		if cfg.ModelPath == "" || cfg.VocabPath == "" {
			return nil, e.Wrap("ONNX_MODEL_PATH/ONNX_VOCAB_PATH", e.ErrMissingEnvVariable)
		}
	default:
		return nil, e.Wrap("EMBEDDER_TYPE", e.ErrIncorrectEnvVariable)
	}

	return cfg, nil
}

func loadGenAICfg(log logger.Logger) (*GenAICfg, error) {
	const (
		defaultModel         = "gemini-2.5-flash"
		defaultTimeout       = 20 * time.Second
		defaultMaxConcurrent = 1
	)

	apiKey := strings.TrimSpace(getEnv("GEMINI_API_KEY"))
	if apiKey == "" {
		err := e.Wrap("GEMINI_API_KEY", e.ErrMissingEnvVariable)
		log.Errorf(err, "missing GEMINI_API_KEY")
		return nil, err
	}

	timeout, err := parseDurationEnv("GENAI_TIMEOUT", defaultTimeout)
	if err != nil {
		log.Errorf(err, "invalid GENAI_TIMEOUT")
		return nil, err
	}

	maxConcurrent, err := parseIntEnv("GENAI_MAX_CONCURRENT", defaultMaxConcurrent)
	if err != nil || maxConcurrent < 1 {
		return nil, e.Wrap("GENAI_MAX_CONCURRENT", e.ErrIncorrectEnvVariable)
	}

	return &GenAICfg{
		ApiKey:        apiKey,
		Model:         getEnvOrDefault("GEMINI_MODEL", defaultModel),
		Timeout:       timeout,
		MaxConcurrent: maxConcurrent,
	}, nil
}

func loadCatalogCfg() (*CatalogCfg, error) {
	const defaultPath = "data/intern_data_ikarus_processed.csv"

	return &CatalogCfg{
		Path: getEnvOrDefault("CATALOG_PATH", defaultPath),
	}, nil
}

// loadMinIOCfg возвращает nil, если MINIO_ENDPOINT не задан.
func loadMinIOCfg(log logger.Logger) (*MinIOCfg, error) {
	const defaultUseSSL = false

	endpoint := getEnv("MINIO_ENDPOINT")
	if endpoint == "" {
		return nil, nil
	}

	useSSL, err := parseBoolEnv("MINIO_USE_SSL", defaultUseSSL)
	if err != nil {
		log.Errorf(err, "invalid MINIO_USE_SSL")
		return nil, err
	}

	return &MinIOCfg{
		MinioEndpoint:     endpoint,
		MinioRootUser:     getEnv("MINIO_ROOT_USER"),
		MinioRootPassword: getEnv("MINIO_ROOT_PASSWORD"),
		MinioUseSSL:       useSSL,
	}, nil
}

// loadPGDBCfg возвращает nil, если POSTGRES_DB не задан: журнал загрузок тогда не ведётся.
func loadPGDBCfg(log logger.Logger) (*PGDBCfg, error) {
	const (
		defaultHost    = "localhost"
		defaultPort    = "5432"
		defaultSSLMode = "disable"

		defaultMigrationsURL = "file://db/migrations"
	)

	dbName := getEnv("POSTGRES_DB")
	if dbName == "" {
		return nil, nil
	}

	user := getEnv("POSTGRES_USER")
	if user == "" {
		err := e.Wrap("POSTGRES_USER", e.ErrMissingEnvVariable)
		log.Errorf(err, "missing POSTGRES_USER")
		return nil, err
	}

	password := getEnv("POSTGRES_PASSWORD")
	if password == "" {
		err := e.Wrap("POSTGRES_PASSWORD", e.ErrMissingEnvVariable)
		log.Errorf(err, "missing POSTGRES_PASSWORD")
		return nil, err
	}

	return &PGDBCfg{
		Host:     getEnvOrDefault("POSTGRES_HOST", defaultHost),
		Port:     getEnvOrDefault("POSTGRES_PORT", defaultPort),
		User:     user,
		Password: password,
		DBName:   dbName,
		SSLMode:  getEnvOrDefault("SSL_MODE", defaultSSLMode),

		MigrationsURL: getEnvOrDefault("MIGRATIONS_URL", defaultMigrationsURL),
	}, nil
}

// loadRedisCfg возвращает nil, если REDIS_ADDR не задан.
func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultDB          = 0
		defaultDialTimeout = 5 * time.Second
		defaultTimeout     = 500 * time.Millisecond
		defaultStatsKey    = "queries:popular"
	)

	addr := getEnv("REDIS_ADDR")
	if addr == "" {
		return nil, nil
	}

	db, err := parseIntEnv("REDIS_DB_ID", defaultDB)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	dialTimeout, err := parseDurationEnv("DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid DIAL_TIMEOUT")
		return nil, err
	}

	timeout, err := parseDurationEnv("REDIS_TIMEOUT", defaultTimeout)
	if err != nil {
		log.Errorf(err, "invalid REDIS_TIMEOUT")
		return nil, err
	}

	return &RedisCfg{
		Addr:        addr,
		Password:    getEnv("REDIS_PASSWORD"),
		User:        getEnv("REDIS_USER"),
		DB:          db,
		DialTimeout: dialTimeout,
		Timeout:     timeout,
		StatsKey:    getEnvOrDefault("REDIS_STATS_KEY", defaultStatsKey),
	}, nil
}

// loadKafkaCfg возвращает nil, если KAFKA_BROKERS не задан.
func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultTopic        = "catalog.events"
		defaultWriteTimeout = 10 * time.Second
	)

	brokers := splitList(getEnv("KAFKA_BROKERS"))
	if len(brokers) == 0 {
		return nil, nil
	}

	writeTimeout, err := parseDurationEnv("KAFKA_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		return nil, e.Wrap("KAFKA_WRITE_TIMEOUT", err)
	}

	partitions, err := parseIntEnv("KAFKA_PARTITIONS", 1)
	if err != nil {
		return nil, e.Wrap("KAFKA_PARTITIONS", err)
	}

	replication, err := parseIntEnv("KAFKA_REPLICATION_FACTOR", 1)
	if err != nil {
		return nil, e.Wrap("KAFKA_REPLICATION_FACTOR", err)
	}

	return &KafkaCfg{
		Brokers:           brokers,
		Topic:             getEnvOrDefault("KAFKA_TOPIC", defaultTopic),
		WriteTimeout:      writeTimeout,
		NetworkMode:       "tcp",
		Partitions:        partitions,
		ReplicationFactor: replication,
	}, nil
}

// getEnv возвращает значение переменной окружения.
// Возвращает пустую строку, если переменная не задана.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		return time.ParseDuration(v)
	}

	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue, e.Wrap(key, e.ErrIncorrectEnvVariable)
	}

	return intValue, nil
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue, e.Wrap(key, e.ErrIncorrectEnvVariable)
	}

	return b, nil
}

// splitList разбивает список через запятую, отбрасывая пустые элементы.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}

	return out
}
