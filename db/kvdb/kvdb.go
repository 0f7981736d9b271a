package kvdb

const (
	// GenerationsBucket holds one record per generation request, keyed by request id.
	GenerationsBucket = "generations"
)

var buckets = []string{GenerationsBucket}

type DB interface {
	Set(bucket string, key string, value string) error
	Get(bucket string, key string) (string, error)
	Delete(bucket string, key string) error
	GetAllKeys(bucket string) ([]string, error)
	Close() error
}
