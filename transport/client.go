package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/webtransport-go"
)

// Dial connects to a MoQ Transport endpoint. The URL scheme selects the
// transport: "moqt" (or its alias "moq") dials raw QUIC directly, "https" performs a
// WebTransport upgrade over HTTP/3. insecureSkipVerify is exposed for
// dialing self-signed development servers and should stay false otherwise.
func Dial(ctx context.Context, rawURL string, insecureSkipVerify bool) (Connection, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("transport: parse url: %w", err)
	}

	switch u.Scheme {
	case "moqt", "moq":
		return dialQUIC(ctx, u, insecureSkipVerify)
	case "https":
		return dialWebTransport(ctx, u, insecureSkipVerify)
	default:
		return nil, fmt.Errorf("transport: unsupported url scheme %q", u.Scheme)
	}
}

func dialQUIC(ctx context.Context, u *url.URL, insecureSkipVerify bool) (Connection, error) {
	tlsConf := &tls.Config{
		NextProtos:         []string{ALPN},
		InsecureSkipVerify: insecureSkipVerify,
		ServerName:         u.Hostname(),
	}
	conn, err := quic.DialAddr(ctx, u.Host, tlsConf, &quic.Config{EnableDatagrams: true})
	if err != nil {
		return nil, fmt.Errorf("transport: dial quic: %w", err)
	}
	return NewQUICConnection(conn), nil
}

func dialWebTransport(ctx context.Context, u *url.URL, insecureSkipVerify bool) (Connection, error) {
	d := webtransport.Dialer{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: insecureSkipVerify},
	}
	_, session, err := d.Dial(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("transport: dial webtransport: %w", err)
	}
	return NewWebTransportConnection(session), nil
}
