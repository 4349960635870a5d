package uuid

import (
	"strings"

	"github.com/google/uuid"
)

// GenUUID 生成一个去掉连字符的uuid
func GenUUID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// GenUUID16 生成16位短id，用于请求追踪
func GenUUID16() string {
	return GenUUID()[:16]
}
