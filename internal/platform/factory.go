package platform

import (
	"context"

	"github.com/aretw0/docevolve/pkg/adapters/fs"
	"github.com/aretw0/docevolve/pkg/core"
)

// Locker is implemented by repositories offering an advisory cross-process lock.
type Locker interface {
	Lock(ctx context.Context) (func(), error)
}

// New opens the store rooted at root.
//
//	store, err := docevolve.New("./docs", docevolve.WithVerify(true))
func New(root string, opts ...Option) (*core.Store, error) {
	return Open(context.Background(), root, opts...)
}

// Open is New with an explicit context.
func Open(ctx context.Context, root string, opts ...Option) (*core.Store, error) {
	o := applyOptions(opts)

	repo, err := newRepository(root, o)
	if err != nil {
		return nil, err
	}

	return core.Open(ctx, root, repo)
}

// Lock acquires the advisory state lock of the store rooted at root.
// Repositories without locking support yield a no-op unlock.
func Lock(ctx context.Context, root string, opts ...Option) (func(), error) {
	o := applyOptions(opts)

	repo, err := newRepository(root, o)
	if err != nil {
		return nil, err
	}

	locker, ok := repo.(Locker)
	if !ok {
		return func() {}, nil
	}
	return locker.Lock(ctx)
}

// newRepository returns the injected repository or the state file adapter.
func newRepository(root string, o *options) (core.Repository, error) {
	if o.repository != nil {
		return o.repository, nil
	}

	repo, err := fs.NewRepository(fs.Config{
		Root:        root,
		SystemDir:   o.systemDir,
		StateFile:   o.stateFile,
		Verify:      o.verify,
		LockTimeout: o.lockTimeout,
		Logger:      o.logger,
	})
	if err != nil {
		return nil, err
	}

	if o.logger != nil {
		o.logger.Debug("using state file", "path", repo.Path, "verify", o.verify)
	}
	return repo, nil
}
