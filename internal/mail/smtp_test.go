package mail

import (
	"bufio"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"errors"
	"math/big"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessage_Headers(t *testing.T) {
	m := buildMessage(Message{
		FromName:    "A Name",
		FromAddress: "a@smtp.ionos.de",
		To:          "x@y.z",
		Subject:     "Hi",
		Text:        "Hello",
	})

	assert.Equal(t, []string{`"A Name" <a@smtp.ionos.de>`}, m.GetHeader("From"))
	assert.Equal(t, []string{"x@y.z"}, m.GetHeader("To"))
	assert.Equal(t, []string{"Hi"}, m.GetHeader("Subject"))
}

func TestBuildMessage_EmptyNameUsesBareAddress(t *testing.T) {
	m := buildMessage(Message{FromAddress: "a@smtp.ionos.de", To: "x@y.z"})
	assert.Equal(t, []string{"a@smtp.ionos.de"}, m.GetHeader("From"))
}

// closedPort devuelve una dirección local sin listener.
func closedPort(t *testing.T) (string, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().(*net.TCPAddr)
	require.NoError(t, ln.Close())
	return "127.0.0.1", addr.Port
}

func TestSMTPTransport_DialFailure(t *testing.T) {
	host, port := closedPort(t)
	tr := NewSMTPTransport(SMTPConfig{Host: host, Port: port, Timeout: 2 * time.Second})

	err := tr.Send(context.Background(), Credentials{Username: "u", Password: "p"}, Message{
		FromAddress: "u@example.test", To: "x@example.test", Subject: "s", Text: "t",
	})
	require.Error(t, err)

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, DiagDial, te.Code)
	assert.True(t, te.Temporary)
}

func TestSMTPTransport_CanceledContext(t *testing.T) {
	tr := NewSMTPTransport(SMTPConfig{Host: "127.0.0.1", Port: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := tr.Send(ctx, Credentials{}, Message{FromAddress: "a@b.c", To: "x@y.z"})
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, DiagCanceled, te.Code)
	assert.ErrorIs(t, err, context.Canceled)
}

// Servidor SMTP mínimo que no anuncia STARTTLS.
func serveNoStartTLS(t *testing.T) (string, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
		r := bufio.NewReader(conn)
		_, _ = conn.Write([]byte("220 test ESMTP\r\n"))
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			cmd := strings.ToUpper(strings.TrimSpace(line))
			switch {
			case strings.HasPrefix(cmd, "EHLO"):
				_, _ = conn.Write([]byte("250-test\r\n250 AUTH PLAIN\r\n"))
			case strings.HasPrefix(cmd, "QUIT"):
				_, _ = conn.Write([]byte("221 bye\r\n"))
				return
			default:
				_, _ = conn.Write([]byte("502 not implemented\r\n"))
			}
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return "127.0.0.1", addr.Port
}

func TestSMTPTransport_RequiresStartTLS(t *testing.T) {
	host, port := serveNoStartTLS(t)
	tr := NewSMTPTransport(SMTPConfig{Host: host, Port: port, Timeout: 3 * time.Second})

	err := tr.Send(context.Background(), Credentials{Username: "u", Password: "p"}, Message{
		FromAddress: "u@example.test", To: "x@example.test", Subject: "s", Text: "t",
	})
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, DiagTLS, te.Code)
}

// selfSignedCert genera un certificado para 127.0.0.1.
func selfSignedCert(t *testing.T) tls.Certificate {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "127.0.0.1"},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}
}

// smtpSession es lo que vio el servidor falso.
type smtpSession struct {
	mu        sync.Mutex
	commands  []string
	tlsOnAuth bool
	auth      string // PLAIN decodificado
	data      string
}

func (s *smtpSession) add(cmd string) {
	s.mu.Lock()
	s.commands = append(s.commands, cmd)
	s.mu.Unlock()
}

// serveStartTLS atiende una sesión: STARTTLS, AUTH PLAIN, MAIL, RCPT, DATA, QUIT.
func serveStartTLS(t *testing.T) (string, int, *smtpSession, <-chan struct{}) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	tlsCfg := &tls.Config{Certificates: []tls.Certificate{selfSignedCert(t)}}
	sess := &smtpSession{}
	done := make(chan struct{})

	go func() {
		defer close(done)
		raw, err := ln.Accept()
		if err != nil {
			return
		}
		var conn net.Conn = raw
		defer func() { _ = conn.Close() }()
		_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

		r := bufio.NewReader(conn)
		write := func(s string) { _, _ = conn.Write([]byte(s)) }
		secure := false

		write("220 test ESMTP\r\n")
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			line = strings.TrimRight(line, "\r\n")
			cmd := strings.ToUpper(line)
			sess.add(line)

			switch {
			case strings.HasPrefix(cmd, "EHLO"):
				if secure {
					write("250-test\r\n250 AUTH PLAIN\r\n")
				} else {
					write("250-test\r\n250 STARTTLS\r\n")
				}
			case cmd == "STARTTLS":
				write("220 ready\r\n")
				tc := tls.Server(raw, tlsCfg)
				if err := tc.Handshake(); err != nil {
					return
				}
				conn, r, secure = tc, bufio.NewReader(tc), true
			case strings.HasPrefix(cmd, "AUTH PLAIN"):
				b, _ := base64.StdEncoding.DecodeString(strings.TrimSpace(line[len("AUTH PLAIN"):]))
				sess.mu.Lock()
				sess.auth, sess.tlsOnAuth = string(b), secure
				sess.mu.Unlock()
				write("235 2.7.0 accepted\r\n")
			case strings.HasPrefix(cmd, "MAIL FROM"), strings.HasPrefix(cmd, "RCPT TO"):
				write("250 ok\r\n")
			case cmd == "DATA":
				write("354 go ahead\r\n")
				var body strings.Builder
				for {
					l, err := r.ReadString('\n')
					if err != nil {
						return
					}
					if l == ".\r\n" {
						break
					}
					body.WriteString(l)
				}
				sess.mu.Lock()
				sess.data = body.String()
				sess.mu.Unlock()
				write("250 queued\r\n")
			case cmd == "QUIT":
				write("221 bye\r\n")
				return
			default:
				write("502 not implemented\r\n")
			}
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return "127.0.0.1", addr.Port, sess, done
}

func TestSMTPTransport_SendsOverStartTLSWithOwnCredentials(t *testing.T) {
	host, port, sess, done := serveStartTLS(t)
	tr := NewSMTPTransport(SMTPConfig{Host: host, Port: port, Timeout: 3 * time.Second, InsecureSkipVerify: true})

	err := tr.Send(context.Background(), Credentials{Username: "a@smtp.ionos.de", Password: "pw"}, Message{
		FromName:    "A Name",
		FromAddress: "a@smtp.ionos.de",
		To:          "x@y.z",
		Subject:     "Hi",
		Text:        "Hello",
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("smtp session did not finish")
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	var order []string
	for _, c := range sess.commands {
		verb := strings.ToUpper(strings.Fields(c)[0])
		if verb == "MAIL" || verb == "RCPT" {
			order = append(order, c)
			continue
		}
		order = append(order, verb)
	}
	assert.Equal(t, []string{
		"EHLO", "STARTTLS", "EHLO", "AUTH",
		"MAIL FROM:<a@smtp.ionos.de>", "RCPT TO:<x@y.z>", "DATA", "QUIT",
	}, order)

	assert.True(t, sess.tlsOnAuth, "AUTH sólo después de STARTTLS")
	assert.Equal(t, "\x00a@smtp.ionos.de\x00pw", sess.auth)
	assert.Contains(t, sess.data, `From: "A Name" <a@smtp.ionos.de>`)
	assert.Contains(t, sess.data, "To: x@y.z")
	assert.Contains(t, sess.data, "Subject: Hi")
	assert.Contains(t, sess.data, "Hello")
}
