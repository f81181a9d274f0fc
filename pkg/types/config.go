package types

type Config struct {
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort      uint   `envconfig:"SERVER_PORT" default:"8080"`
	DatabaseURL     string `envconfig:"DATABASE_URL"`
	ReadTimeoutSec  uint   `envconfig:"READ_TIMEOUT_SEC" default:"10"`
	WriteTimeoutSec uint   `envconfig:"WRITE_TIMEOUT_SEC" default:"60"`
	LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`

	// Cognito Auth
	CognitoUserPoolID string `envconfig:"COGNITO_USER_POOL_ID"`
	CognitoClientID   string `envconfig:"COGNITO_CLIENT_ID"`
	CognitoIssuerURL  string `envconfig:"COGNITO_ISSUER_URL"`

	// Cookie encryption keys (base64 encoded)
	// openssl rand -base64 32
	// to generate values
	CookieHashKey  string `envconfig:"COOKIE_HASH_KEY"`  // 32 or 64 bytes
	CookieBlockKey string `envconfig:"COOKIE_BLOCK_KEY"` // 16, 24, or 32 bytes

	// Object storage. STORAGE_DRIVER is "s3" or "supabase".
	StorageDriver        string `envconfig:"STORAGE_DRIVER" default:"s3"`
	S3BucketName         string `envconfig:"S3_BUCKET_NAME" default:"reports"`
	S3Endpoint           string `envconfig:"S3_ENDPOINT"`
	StoragePublicBaseURL string `envconfig:"STORAGE_PUBLIC_BASE_URL"`
	SupabaseProjectID    string `envconfig:"SUPABASE_PROJECT_ID"`
	SupabaseServiceKey   string `envconfig:"SUPABASE_SERVICE_KEY"`

	MaxUploadBytes   int64    `envconfig:"MAX_UPLOAD_BYTES" default:"5242880"`
	AllowedMimeTypes []string `envconfig:"ALLOWED_MIME_TYPES" default:"image/jpeg,image/png,image/gif,image/webp,image/heic,image/heif"`

	// Inference
	GeminiAPIKey            string   `envconfig:"GEMINI_API_KEY"`
	GeminiModel             string   `envconfig:"GEMINI_MODEL" default:"gemini-1.5-flash"`
	VerifyMismatchTokens    []string `envconfig:"VERIFY_MISMATCH_TOKENS" default:"DescriptionMismatch"`
	VerifyNotEligibleTokens []string `envconfig:"VERIFY_NOT_ELIGIBLE_TOKENS" default:"NotCityIssue"`

	// Outbound email
	EmailFrom        string `envconfig:"EMAIL_FROM"`
	EmailCityContact string `envconfig:"EMAIL_CITY_CONTACT"`

	NominatimURL     string `envconfig:"NOMINATIM_URL" default:"https://nominatim.openstreetmap.org"`
	GeocodeUserAgent string `envconfig:"GEOCODE_USER_AGENT" default:"civicsnap/1.0"`
}
