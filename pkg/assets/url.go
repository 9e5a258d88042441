package assets

import (
	"fmt"
	"net"
	"net/url"
)

// IsSafeURL は外部から取得してよい画像 URL かどうかを判定します。
// gs:// はバケット名があれば許可し、http(s) は解決先の IP がすべて公開アドレスである場合のみ許可します。
func IsSafeURL(rawURL string) (bool, error) {
	u, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return false, fmt.Errorf("URL を解析できません: %w", err)
	}

	switch u.Scheme {
	case "gs":
		if u.Host == "" {
			return false, fmt.Errorf("gs:// にバケット名がありません: %s", rawURL)
		}
		return true, nil
	case "http", "https":
	default:
		return false, fmt.Errorf("許可されていないスキームです: %s", u.Scheme)
	}

	ips, err := resolveHost(u.Hostname())
	if err != nil {
		return false, err
	}
	for _, ip := range ips {
		if restricted(ip) {
			return false, fmt.Errorf("内部ネットワークのアドレスです: %s", ip)
		}
	}
	return true, nil
}

func resolveHost(host string) ([]net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []net.IP{ip}, nil
	}
	ips, err := net.LookupIP(host)
	if err != nil {
		return nil, fmt.Errorf("%s を名前解決できません: %w", host, err)
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("%s のアドレスがありません", host)
	}
	return ips, nil
}

func restricted(ip net.IP) bool {
	return ip.IsPrivate() ||
		ip.IsLoopback() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified()
}
