// Package clientip определяет идентификатор клиента (IP-адрес) по метаданным запроса.
package clientip

import (
	"net"
	"net/http"
	"strings"
)

// ForwardedForHeader заголовок цепочки прокси.
const ForwardedForHeader = "X-Forwarded-For"

// Resolve возвращает IP клиента: первый адрес из X-Forwarded-For, если заголовок
// непустой, иначе RemoteAddr без порта. Значение не валидируется и используется
// только как непрозрачный ключ сравнения.
func Resolve(r *http.Request) string {
	if xff := r.Header.Get(ForwardedForHeader); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
