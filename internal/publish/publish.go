// Package publish commits the rendered site to the pages branch of the
// project repository and pushes it.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"git.home.luguber.info/inful/doxidize/internal/config"
	ferrors "git.home.luguber.info/inful/doxidize/internal/foundation/errors"
	"git.home.luguber.info/inful/doxidize/internal/logfields"
)

// pagesRemote is the name of the remote the site repository pushes to.
const pagesRemote = "o"

// Result describes one publish.
type Result struct {
	// Revision is the abbreviated HEAD of the project the site was built from.
	Revision string
	// Commit is the site commit pushed to the pages branch. It is empty when
	// the site had no changes since the last publish.
	Commit string
	Branch string
}

// Publisher pushes <output>/public to the pages branch.
type Publisher struct {
	project *config.Project
	now     func() time.Time
}

// New returns a Publisher for project.
func New(project *config.Project) *Publisher {
	return &Publisher{project: project, now: time.Now}
}

// Publish commits the current site and pushes it first to the project
// repository and from there to the project's remote.
func (p *Publisher) Publish(ctx context.Context) (*Result, error) {
	public := p.project.Paths.PublicDir()
	if st, err := os.Stat(public); err != nil || !st.IsDir() {
		return nil, ferrors.UninitializedError("no rendered site to publish").
			WithContext(ferrors.KeyLocation, public).
			WithContext(ferrors.KeyCommand, "publish").
			WithContext(ferrors.KeyHint, "run `doxidize build` first").
			Build()
	}
	branch := p.project.Config.Publish.Branch
	remote := p.project.Config.Publish.Remote

	project, err := git.PlainOpenWithOptions(p.project.Paths.Root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryGit, "failed to open project repository").
			WithContext("path", p.project.Paths.Root).
			UserAction().
			Build()
	}
	head, err := project.Head()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryGit, "project repository has no HEAD").
			WithContext("path", p.project.Paths.Root).
			Build()
	}
	res := &Result{Revision: head.Hash().String()[:7], Branch: branch}

	gitDir, err := dotGit(project)
	if err != nil {
		return nil, err
	}
	pages, err := p.openPages(ctx, public, gitDir, branch)
	if err != nil {
		return nil, err
	}

	commit, err := p.commit(project, pages, res.Revision)
	if err != nil {
		return nil, err
	}
	if !commit.IsZero() {
		res.Commit = commit.String()
	}

	pagesHead, err := pages.Head()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryGit, "site repository has no HEAD").
			WithContext("path", public).
			Build()
	}
	spec := ggitcfg.RefSpec(pagesHead.Name().String() + ":" + plumbing.NewBranchReferenceName(branch).String())
	if err := push(ctx, pages, pagesRemote, spec); err != nil {
		return nil, err
	}
	slog.Info("Updated pages branch", logfields.Name(branch), slog.String("revision", res.Revision))

	spec = ggitcfg.RefSpec(plumbing.NewBranchReferenceName(branch).String() + ":" + plumbing.NewBranchReferenceName(branch).String())
	if err := push(ctx, project, remote, spec); err != nil {
		return nil, err
	}
	slog.Info("Pushed pages branch", logfields.Name(branch), slog.String("remote", remote))
	return res, nil
}

// openPages opens the site repository, initialising it on first use. A new
// repository gets the pages remote and starts from the published branch
// when the project already has one.
func (p *Publisher) openPages(ctx context.Context, public, gitDir, branch string) (*git.Repository, error) {
	repo, err := git.PlainOpen(public)
	if err == nil {
		return repo, nil
	}
	if !errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, ferrors.WrapError(err, ferrors.CategoryGit, "failed to open site repository").
			WithContext("path", public).
			Build()
	}

	repo, err = git.PlainInit(public, false)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryGit, "failed to initialise site repository").
			WithContext("path", public).
			Build()
	}
	rem, err := repo.CreateRemote(&ggitcfg.RemoteConfig{Name: pagesRemote, URLs: []string{gitDir}})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryGit, "failed to add pages remote").
			WithContext("url", gitDir).
			Build()
	}

	refs, err := rem.ListContext(ctx, &git.ListOptions{})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryGit, "failed to list project branches").
			WithContext("url", gitDir).
			Build()
	}
	want := plumbing.NewBranchReferenceName(branch)
	var existing *plumbing.Reference
	for _, r := range refs {
		if r.Name() == want {
			existing = r
			break
		}
	}
	if existing == nil {
		slog.Debug("No pages branch yet", logfields.Name(branch))
		return repo, nil
	}

	tracking := plumbing.NewRemoteReferenceName(pagesRemote, branch)
	err = repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: pagesRemote,
		Tags:       git.NoTags,
		RefSpecs:   []ggitcfg.RefSpec{ggitcfg.RefSpec("+" + want.String() + ":" + tracking.String())},
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil, ferrors.WrapError(err, ferrors.CategoryGit, "failed to fetch pages branch").
			WithContext("branch", branch).
			Build()
	}

	// Move the local branch onto the published history and keep the
	// working tree, which already holds the new site.
	headRef, err := repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryGit, "failed to read site HEAD").Build()
	}
	local := plumbing.NewHashReference(headRef.Target(), existing.Hash())
	if err := repo.Storer.SetReference(local); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryGit, "failed to update site branch").Build()
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryGit, "failed to open site worktree").Build()
	}
	if err := wt.Reset(&git.ResetOptions{Commit: existing.Hash(), Mode: git.MixedReset}); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryGit, "failed to reset site index").Build()
	}
	return repo, nil
}

// commit stages the whole site and commits it. A zero hash means there was
// nothing to commit.
func (p *Publisher) commit(project, pages *git.Repository, revision string) (plumbing.Hash, error) {
	wt, err := pages.Worktree()
	if err != nil {
		return plumbing.ZeroHash, ferrors.WrapError(err, ferrors.CategoryGit, "failed to open site worktree").Build()
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return plumbing.ZeroHash, ferrors.WrapError(err, ferrors.CategoryGit, "failed to stage site").Build()
	}
	hash, err := wt.Commit(fmt.Sprintf("rebuild pages from %s", revision), &git.CommitOptions{
		Author: p.signature(project),
	})
	if errors.Is(err, git.ErrEmptyCommit) {
		slog.Info("Site unchanged since last publish", slog.String("revision", revision))
		return plumbing.ZeroHash, nil
	}
	if err != nil {
		return plumbing.ZeroHash, ferrors.WrapError(err, ferrors.CategoryGit, "failed to commit site").Build()
	}
	return hash, nil
}

// signature uses the project's configured identity when there is one.
func (p *Publisher) signature(project *git.Repository) *object.Signature {
	sig := &object.Signature{Name: "doxidize", Email: "doxidize@localhost", When: p.now()}
	cfg, err := project.ConfigScoped(ggitcfg.GlobalScope)
	if err != nil {
		return sig
	}
	if cfg.User.Name != "" {
		sig.Name = cfg.User.Name
	}
	if cfg.User.Email != "" {
		sig.Email = cfg.User.Email
	}
	return sig
}

func push(ctx context.Context, repo *git.Repository, remote string, spec ggitcfg.RefSpec) error {
	err := repo.PushContext(ctx, &git.PushOptions{RemoteName: remote, RefSpecs: []ggitcfg.RefSpec{spec}})
	switch {
	case err == nil, errors.Is(err, git.NoErrAlreadyUpToDate):
		return nil
	case errors.Is(err, git.ErrRemoteNotFound):
		return ferrors.WrapError(err, ferrors.CategoryGit, "remote not configured").
			WithContext("remote", remote).
			UserAction().
			Build()
	default:
		return ferrors.WrapError(err, ferrors.CategoryGit, "push failed").
			WithContext("remote", remote).
			WithContext("refspec", spec.String()).
			Build()
	}
}

// dotGit returns the absolute path of the project's git directory.
func dotGit(repo *git.Repository) (string, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryGit, "project repository has no worktree").Build()
	}
	dir, err := filepath.Abs(filepath.Join(wt.Filesystem.Root(), ".git"))
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to resolve git directory").Build()
	}
	return dir, nil
}
