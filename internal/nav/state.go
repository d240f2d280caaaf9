// Package nav tracks which view, post, club, or user is focused.
//
// Selection is modeled as a tagged union so that "at most one of post, club,
// user selected" is structural rather than a convention over nullable fields.
package nav

import (
	"sync"

	"campusnet/internal/models"
)

// View is a top-level view of the application.
type View string

const (
	ViewFeed       View = "feed"
	ViewClubs      View = "clubs"
	ViewProfile    View = "profile"
	ViewClubFeed   View = "clubFeed"
	ViewUserSearch View = "userSearch"
)

// SelectionKind tags the active selection variant.
type SelectionKind int

const (
	SelectNone SelectionKind = iota
	SelectPost
	SelectClub
	SelectUser
)

// Selection is the exclusive overlay selection. Exactly one of the payload
// fields is meaningful, per Kind.
type Selection struct {
	Kind SelectionKind
	Post *models.Post
	Club *models.Club
	User *models.ProfileView
}

// State is the navigation/selection state machine.
type State struct {
	mu        sync.Mutex
	view      View
	selection Selection
}

// NewState returns a State positioned on the feed with nothing selected.
func NewState() *State {
	return &State{view: ViewFeed}
}

// Navigate switches to a top-level view and clears any selection.
func (s *State) Navigate(v View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = v
	s.selection = Selection{}
}

// SelectPost overlays a post selection on the current view.
func (s *State) SelectPost(p models.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = Selection{Kind: SelectPost, Post: &p}
}

// SelectClub overlays a club selection on the current view.
func (s *State) SelectClub(c models.Club) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = Selection{Kind: SelectClub, Club: &c}
}

// SelectUser overlays a user selection and moves to the profile view,
// matching the view-profile flow.
func (s *State) SelectUser(u models.ProfileView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = ViewProfile
	s.selection = Selection{Kind: SelectUser, User: &u}
}

// Back clears the selection, returning to the list beneath it. Selecting a
// club from the clubs view and going back lands on clubs; a viewed user goes
// back to user search.
func (s *State) Back() {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.selection.Kind {
	case SelectClub:
		s.view = ViewClubs
	case SelectUser:
		s.view = ViewUserSearch
	}
	s.selection = Selection{}
}

// View returns the current top-level view.
func (s *State) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Selection returns the current selection. The overlay takes render priority
// over the base view when Kind is not SelectNone.
func (s *State) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// UpdateSelectedPost replaces the selected post when one is selected and its
// ID matches, keeping the overlay in sync after a merge.
func (s *State) UpdateSelectedPost(p models.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection.Kind == SelectPost && s.selection.Post.ID == p.ID {
		s.selection.Post = &p
	}
}

// UpdateSelectedClub replaces the selected club when one is selected and its
// ID matches.
func (s *State) UpdateSelectedClub(c models.Club) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection.Kind == SelectClub && s.selection.Club.ID == c.ID {
		s.selection.Club = &c
	}
}

// UpdateSelectedUser applies fn to the selected user, if any. Used by the
// optimistic follow/unfollow counters.
func (s *State) UpdateSelectedUser(fn func(*models.ProfileView)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection.Kind == SelectUser {
		fn(s.selection.User)
	}
}
