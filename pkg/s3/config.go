package s3

// ClientOption configures Client.
type ClientOption func(*ClientConfig)

// ClientConfig holds S3 configuration.
type ClientConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
	Bucket    string
}

// WithEndpoint sets the object-store endpoint (host:port, no scheme).
func WithEndpoint(endpoint string) ClientOption {
	return func(c *ClientConfig) {
		c.Endpoint = endpoint
	}
}

// WithCredentials sets access and secret keys.
func WithCredentials(accessKey, secretKey string) ClientOption {
	return func(c *ClientConfig) {
		c.AccessKey = accessKey
		c.SecretKey = secretKey
	}
}

// WithRegion sets the region.
func WithRegion(region string) ClientOption {
	return func(c *ClientConfig) {
		c.Region = region
	}
}

// WithSSL enables TLS.
func WithSSL(useSSL bool) ClientOption {
	return func(c *ClientConfig) {
		c.UseSSL = useSSL
	}
}

// WithBucket sets the bucket holding model artifacts.
func WithBucket(bucket string) ClientOption {
	return func(c *ClientConfig) {
		c.Bucket = bucket
	}
}
