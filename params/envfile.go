package params

import (
	"github.com/joho/godotenv"
)

// LoadEnvFile reads a dotenv-format file into Pairs, key-sorted so that
// downstream rendering stays deterministic regardless of file order.
func LoadEnvFile(path string) (Pairs, error) {
	m, err := godotenv.Read(path)
	if err != nil {
		return nil, err
	}
	return FromMap(m), nil
}
