package config

// StorageConfig configures file storage for offloaded input artifacts.
type StorageConfig struct {
	Mode             string // local | s3
	AWSRegion        string
	Bucket           string
	UploadDir        string
	OffloadThreshold int // bytes; input values above this go to storage
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{
		Mode:             getEnv("STORAGE_MODE", "local"),
		AWSRegion:        getEnv("AWS_REGION", "us-east-1"),
		Bucket:           getEnv("AWS_BUCKET", "workgate-artifacts"),
		UploadDir:        getEnv("UPLOAD_DIR", "./uploads"),
		OffloadThreshold: getEnvInt("STORAGE_OFFLOAD_THRESHOLD", 64*1024),
	}
}
