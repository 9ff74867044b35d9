package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// How long to wait for the browser to come back with a code.
const authTimeout = 5 * time.Minute

type callbackResult struct {
	code string
	err  error
}

// Authenticate drives the authorization-code flow with PKCE. It binds
// a loopback listener on an ephemeral port, registers that address as
// the redirect target, prints the authorization URL, and waits for
// VeloHub to send the browser back with the code.
func Authenticate(ctx context.Context, cfg *oauth2.Config) (*AuthResult, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("binding callback listener: %w", err)
	}

	local := *cfg
	local.RedirectURL = fmt.Sprintf("http://%s/callback", listener.Addr())

	state, err := randomToken()
	if err != nil {
		return nil, fmt.Errorf("generating state: %w", err)
	}
	verifier := oauth2.GenerateVerifier()

	results := make(chan callbackResult, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /callback", callbackHandler(state, results))

	server := &http.Server{Handler: mux}
	go server.Serve(listener)
	defer func() {
		shutCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		server.Shutdown(shutCtx)
	}()

	authURL := local.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	fmt.Println()
	fmt.Println("To connect your VeloHub account, open this URL in your browser:")
	fmt.Println()
	fmt.Printf("  %s\n", authURL)
	fmt.Println()
	fmt.Println("Waiting for authorization...")

	var code string
	select {
	case res := <-results:
		if res.err != nil {
			return nil, res.err
		}
		code = res.code
	case <-time.After(authTimeout):
		return nil, fmt.Errorf("no callback within %v", authTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	token, err := local.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("exchanging code: %w", err)
	}

	return &AuthResult{
		Token:     token,
		AthleteID: AthleteID(token),
	}, nil
}

// callbackHandler validates the redirect from VeloHub and delivers the
// authorization code, or the reason there is none, on results.
func callbackHandler(state string, results chan<- callbackResult) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
			results <- callbackResult{err: errors.New("callback state mismatch")}
		case q.Get("error") != "":
			http.Error(w, "authorization declined", http.StatusBadRequest)
			results <- callbackResult{err: fmt.Errorf("authorization declined: %s", q.Get("error"))}
		case q.Get("code") == "":
			http.Error(w, "missing authorization code", http.StatusBadRequest)
			results <- callbackResult{err: errors.New("callback carried no code")}
		default:
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			fmt.Fprintln(w, "veloready is connected. You can close this tab.")
			results <- callbackResult{code: q.Get("code")}
		}
	}
}

func randomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
