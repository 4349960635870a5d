package binance

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strconv"
	"time"
)

// 币安签名器，对query string做HMAC-SHA256

type Signer struct {
	apiKey     string
	secretKey  string
	recvWindow int64
}

func NewSigner(apiKey, secretKey string) *Signer {
	return &Signer{
		apiKey:     apiKey,
		secretKey:  secretKey,
		recvWindow: 5000,
	}
}

func (s *Signer) APIKey() string {
	return s.apiKey
}

// Sign 对参数编码后计算签名，返回hex字符串
func (s *Signer) Sign(params url.Values) string {
	h := hmac.New(sha256.New, []byte(s.secretKey))
	h.Write([]byte(params.Encode()))
	return hex.EncodeToString(h.Sum(nil))
}

// SignedQuery 补充timestamp/recvWindow并附加signature
func (s *Signer) SignedQuery(params url.Values) url.Values {
	signed := make(url.Values, len(params)+3)
	for key, values := range params {
		for _, v := range values {
			signed.Add(key, v)
		}
	}
	signed.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	if signed.Get("recvWindow") == "" {
		signed.Set("recvWindow", strconv.FormatInt(s.recvWindow, 10))
	}
	signed.Set("signature", s.Sign(signed))
	return signed
}
