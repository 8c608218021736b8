package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/docopt/docopt-go"

	"xbarclient/internal/config"
	"xbarclient/internal/localstate"
	"xbarclient/internal/mockapi"
	"xbarclient/internal/model"
	"xbarclient/internal/notify"
	"xbarclient/internal/reconcile"
	"xbarclient/internal/remote"
	"xbarclient/internal/search"
	"xbarclient/internal/session"
	"xbarclient/internal/store"
)

const XbarVersion = "0.1.0"

var Out *log.Logger

func init() {
	Out = log.New(os.Stdout, "", 0)
}

func main() {
	usage := `xbar social client.

Usage:
    xbar serve-mock [--addr=<addr>] [--users=<n>] [--posts=<n>]
    xbar register --email=<email> --user=<username> --password=<password>
    xbar login --user=<identifier> --password=<password>
    xbar logout
    xbar whoami
    xbar feed
    xbar post --image=<url> --caption=<caption>
    xbar edit-post <post_id> --caption=<caption>
    xbar delete-post <post_id>
    xbar comment <post_id> <text>
    xbar delete-comment <post_id> <comment_id>
    xbar like <post_id>
    xbar search <query>

Options:
    -h --help                Show this screen.
    --version                Show version.
    --addr=<addr>            Mock server listen address [default: 127.0.0.1:8080].
    --users=<n>              Seeded mock users [default: 5].
    --posts=<n>              Seeded mock posts [default: 20].
    --email=<email>          Email address for registration.
    --user=<username>        Username (or email on login).
    --password=<password>    Password.
    --image=<url>            Image URL of the new post.
    --caption=<caption>      Raw caption; '#tags' are extracted server-side.`

	opts, err := docopt.ParseArgs(usage, os.Args[1:], XbarVersion)
	if err != nil {
		log.Fatalf("Parse args failed: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Load config failed: %v", err)
	}

	if serve, _ := opts.Bool("serve-mock"); serve {
		addr, _ := opts.String("--addr")
		users, _ := opts.Int("--users")
		posts, _ := opts.Int("--posts")
		runMockServer(cfg, addr, users, posts)
		return
	}

	app, cleanup, err := newApp(cfg)
	if err != nil {
		log.Fatalf("Startup failed: %v", err)
	}
	defer cleanup()

	ctx := context.Background()
	if err := app.dispatch(ctx, opts); err != nil {
		log.Fatalf("%v", err)
	}
}

// runMockServer runs the seeded in-process backend until interrupted,
// so other xbar invocations can point API_BASE_URL at it.
func runMockServer(cfg *config.Config, addr string, users, posts int) {
	srv := mockapi.NewServer()
	srv.Seed(cfg.MockSeed, users, posts)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("Listen failed: %v", err)
	}
	Out.Printf("mock backend listening on http://%s", ln.Addr())
	Out.Printf("seeded accounts (password %q): %s", mockapi.SeedPassword, strings.Join(srv.SeededUsernames(), ", "))
	if err := http.Serve(ln, srv); err != nil {
		log.Fatalf("Serve failed: %v", err)
	}
}

// app bundles the client SDK the way a UI shell would own it.
type app struct {
	session    *session.Manager
	store      *store.PostStore
	reconciler *reconcile.Reconciler
}

func newApp(cfg *config.Config) (*app, func(), error) {
	baseURL := cfg.APIBaseURL
	var mockClose func()

	if cfg.MockMode {
		// Offline demo: an ephemeral seeded backend for this invocation.
		srv := mockapi.NewServer()
		srv.Seed(cfg.MockSeed, 5, 20)
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return nil, nil, fmt.Errorf("start mock backend: %w", err)
		}
		go http.Serve(ln, srv)
		baseURL = "http://" + ln.Addr().String()
		mockClose = func() { ln.Close() }
		log.Printf("[App] Mock mode: backend at %s", baseURL)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.StatePath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create state dir: %w", err)
	}
	state, err := localstate.Open(cfg.StatePath)
	if err != nil {
		return nil, nil, err
	}

	client := remote.NewHTTPClient(baseURL)
	sess := session.NewManager(client, state)
	postStore := store.NewPostStore()
	reconciler := reconcile.New(postStore, client, notify.LogNotifier{})

	cleanup := func() {
		state.Close()
		if mockClose != nil {
			mockClose()
		}
	}
	return &app{session: sess, store: postStore, reconciler: reconciler}, cleanup, nil
}

func (a *app) dispatch(ctx context.Context, opts docopt.Opts) error {
	switch {
	case command(opts, "register"):
		email, _ := opts.String("--email")
		username, _ := opts.String("--user")
		password, _ := opts.String("--password")
		user, err := a.session.Register(ctx, email, username, password)
		if err != nil {
			return err
		}
		Out.Printf("registered and logged in as %s (id %d)", user.Username, user.ID)
		return nil

	case command(opts, "login"):
		identifier, _ := opts.String("--user")
		password, _ := opts.String("--password")
		user, err := a.session.Login(ctx, identifier, password)
		if err != nil {
			return err
		}
		Out.Printf("logged in as %s (id %d)", user.Username, user.ID)
		return nil

	case command(opts, "logout"):
		a.session.Logout()
		Out.Printf("logged out")
		return nil

	case command(opts, "whoami"):
		user, err := a.requireUser(ctx)
		if err != nil {
			return err
		}
		Out.Printf("%s (id %d): %s", user.Username, user.ID, user.Bio)
		return nil

	case command(opts, "feed"):
		if _, err := a.requireUser(ctx); err != nil {
			return err
		}
		if err := a.reconciler.LoadFeed(ctx); err != nil {
			return err
		}
		a.printPosts(a.store.Read())
		return nil

	case command(opts, "post"):
		user, err := a.requireUser(ctx)
		if err != nil {
			return err
		}
		image, _ := opts.String("--image")
		caption, _ := opts.String("--caption")
		post, err := a.reconciler.CreatePost(ctx, user.Ref(), image, caption)
		if err != nil {
			return err
		}
		Out.Printf("posted %s: %q %v", post.ID, post.Caption, post.Hashtags)
		return nil

	case command(opts, "edit-post"):
		if _, err := a.requireFeed(ctx); err != nil {
			return err
		}
		postID, _ := opts.String("<post_id>")
		caption, _ := opts.String("--caption")
		post, err := a.reconciler.UpdatePostCaption(ctx, postID, caption)
		if err != nil {
			return err
		}
		Out.Printf("updated %s: %q %v", post.ID, post.Caption, post.Hashtags)
		return nil

	case command(opts, "delete-post"):
		if _, err := a.requireFeed(ctx); err != nil {
			return err
		}
		postID, _ := opts.String("<post_id>")
		if err := a.reconciler.DeletePost(ctx, postID); err != nil {
			return err
		}
		Out.Printf("deleted %s", postID)
		return nil

	case command(opts, "comment"):
		user, err := a.requireFeed(ctx)
		if err != nil {
			return err
		}
		postID, _ := opts.String("<post_id>")
		text, _ := opts.String("<text>")
		comment, err := a.reconciler.AddComment(ctx, postID, user.Ref(), text)
		if err != nil {
			return err
		}
		Out.Printf("commented %s on %s", comment.ID, postID)
		return nil

	case command(opts, "delete-comment"):
		if _, err := a.requireFeed(ctx); err != nil {
			return err
		}
		postID, _ := opts.String("<post_id>")
		commentID, _ := opts.String("<comment_id>")
		if err := a.reconciler.DeleteComment(ctx, postID, commentID); err != nil {
			return err
		}
		Out.Printf("deleted comment %s", commentID)
		return nil

	case command(opts, "like"):
		user, err := a.requireFeed(ctx)
		if err != nil {
			return err
		}
		postID, _ := opts.String("<post_id>")
		if err := a.reconciler.ToggleLike(ctx, postID, user.ID); err != nil {
			return err
		}
		post, _ := a.store.Get(postID)
		Out.Printf("post %s now has %d likes", postID, post.LikeCount())
		return nil

	case command(opts, "search"):
		if _, err := a.requireFeed(ctx); err != nil {
			return err
		}
		query, _ := opts.String("<query>")
		tags := search.ParseQuery(query)
		if len(tags) == 0 {
			return fmt.Errorf("no #hashtags in query %q", query)
		}
		a.printPosts(search.ByHashtags(a.store.Read(), tags))
		return nil
	}

	return fmt.Errorf("unknown command")
}

func command(opts docopt.Opts, name string) bool {
	on, _ := opts.Bool(name)
	return on
}

func (a *app) requireUser(ctx context.Context) (*model.User, error) {
	if user := a.session.Current(); user != nil {
		return user, nil
	}
	user, err := a.session.Restore(ctx)
	if err != nil {
		return nil, fmt.Errorf("session expired, log in again: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("not logged in")
	}
	return user, nil
}

// requireFeed restores the session and loads the feed, which post and
// comment commands need for local lookups.
func (a *app) requireFeed(ctx context.Context) (*model.User, error) {
	user, err := a.requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.reconciler.LoadFeed(ctx); err != nil {
		return nil, err
	}
	return user, nil
}

func (a *app) printPosts(posts []model.Post) {
	if len(posts) == 0 {
		Out.Printf("no posts")
		return
	}
	for _, p := range posts {
		Out.Printf("%s  @%s  %s", p.ID, p.Author.Username, p.CreatedAt.Format("2006-01-02 15:04"))
		Out.Printf("  %s", p.Caption)
		if len(p.Hashtags) > 0 {
			Out.Printf("  #%s", strings.Join(p.Hashtags, " #"))
		}
		Out.Printf("  %d likes, %d comments", p.LikeCount(), len(p.Comments))
		// Show the latest two, like the feed card does.
		start := len(p.Comments) - 2
		if start < 0 {
			start = 0
		}
		for _, c := range p.Comments[start:] {
			Out.Printf("    [%s] %s: %s", c.ID, c.Author.Username, c.Text)
		}
	}
}
