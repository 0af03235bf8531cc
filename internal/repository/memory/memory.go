// Package memory implements the repository interfaces in process memory.
// It backs tests and local development without a mongod.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/fathima-sithara/realtime-service/internal/models"
	"github.com/fathima-sithara/realtime-service/internal/repository"
	"github.com/google/uuid"
)

// Store holds every collection behind one mutex; operations preserve the
// conditional filter+update semantics of the mongo implementations.
type Store struct {
	mu         sync.Mutex
	users      map[string]*models.User
	chats      map[string]*models.Chat  // customID -> chat
	stories    map[string]*models.Story // customID -> story
	groups     map[string]*models.Group
	broadcasts map[string]*models.Broadcast
	calls      map[string]*models.Call // customID -> call
}

func New() *Store {
	return &Store{
		users:      make(map[string]*models.User),
		chats:      make(map[string]*models.Chat),
		stories:    make(map[string]*models.Story),
		groups:     make(map[string]*models.Group),
		broadcasts: make(map[string]*models.Broadcast),
		calls:      make(map[string]*models.Call),
	}
}

// Stores returns the aggregate view used for wiring.
func (s *Store) Stores() *repository.Store {
	return &repository.Store{
		Users:      (*users)(s),
		Chats:      (*chats)(s),
		Stories:    (*stories)(s),
		Groups:     (*groups)(s),
		Broadcasts: (*broadcasts)(s),
		Calls:      (*calls)(s),
	}
}

// SeedUser inserts a user directly, for tests and bootstrap.
func (s *Store) SeedUser(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.ID] = &cp
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func addToSet(list []string, v string) []string {
	if contains(list, v) {
		return list
	}
	return append(list, v)
}

func pull(list []string, v string) []string {
	out := list[:0]
	for _, x := range list {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

// ---- users ----

type users Store

func (s *users) Get(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *users) GetMany(_ context.Context, ids []string) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.User
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *users) FindOnline(_ context.Context) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.User
	for _, u := range s.users {
		if u.ActiveStatus == models.ActiveStatusOnline {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *users) SetProfileField(_ context.Context, id, field string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	str, _ := value.(string)
	switch field {
	case "name":
		u.Name = str
	case "picture":
		u.Picture = str
	case "backgroundColor":
		u.BackgroundColor = str
	case "about":
		u.About = str
	case "activeStatus":
		u.ActiveStatus = str
	}
	return nil
}

func (s *users) SetActiveStatus(ctx context.Context, id, status string) error {
	return s.SetProfileField(ctx, id, "activeStatus", status)
}

func (s *users) SetVisibilityPolicy(_ context.Context, id, field string, policy models.FieldPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	switch field {
	case models.FieldProfilePic:
		u.Visibility.ProfilePic = policy
	case models.FieldAbout:
		u.Visibility.About = policy
	case models.FieldActiveStatus:
		u.Visibility.ActiveStatus = policy
	case models.FieldStory:
		u.Visibility.Story = policy
	case models.FieldChatDeliveryStatus:
		u.Visibility.ChatDeliveryStatus = policy
	case models.FieldChatSeenStatus:
		u.Visibility.ChatSeenStatus = policy
	case models.FieldStorySeenStatus:
		u.Visibility.StorySeenStatus = policy
	case models.FieldAddingToGroup:
		u.Visibility.AddingToGroup = policy
	}
	return nil
}

func (s *users) AddConnection(_ context.Context, edge models.Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	init, ok := s.users[edge.InitiatorUserID]
	if !ok {
		return repository.ErrNotFound
	}
	if _, exists := init.ConnectionWith(edge.TargetUserID); exists {
		return repository.ErrDuplicate
	}
	init.Connections = append(init.Connections, edge)
	if tgt, ok := s.users[edge.TargetUserID]; ok {
		tgt.Connections = append(tgt.Connections, edge)
	}
	return nil
}

func (s *users) AcceptConnection(_ context.Context, connectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		for i := range u.Connections {
			if u.Connections[i].ConnectionID == connectionID {
				u.Connections[i].Status = models.ConnectionAccepted
			}
		}
	}
	return nil
}

func (s *users) RemoveConnection(_ context.Context, connectionID string) (models.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var edge models.Connection
	found := false
	for _, u := range s.users {
		kept := u.Connections[:0]
		for _, c := range u.Connections {
			if c.ConnectionID == connectionID {
				edge = c
				found = true
				continue
			}
			kept = append(kept, c)
		}
		u.Connections = kept
	}
	if !found {
		return models.Connection{}, repository.ErrNotFound
	}
	return edge, nil
}

func (s *users) RemoveEdgesWith(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		kept := u.Connections[:0]
		for _, c := range u.Connections {
			if c.InitiatorUserID == userID || c.TargetUserID == userID {
				continue
			}
			kept = append(kept, c)
		}
		u.Connections = kept
	}
	return nil
}

func (s *users) Block(_ context.Context, ownerID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[ownerID]
	if !ok {
		return repository.ErrNotFound
	}
	u.BlockedUsers = addToSet(u.BlockedUsers, targetID)
	return nil
}

func (s *users) Unblock(_ context.Context, ownerID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[ownerID]
	if !ok {
		return repository.ErrNotFound
	}
	u.BlockedUsers = pull(u.BlockedUsers, targetID)
	return nil
}

func (s *users) UpsertRecentTab(_ context.Context, ownerID string, tab models.RecentTab) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[ownerID]
	if !ok {
		return repository.ErrNotFound
	}
	for i := range u.RecentChatsTabs {
		if u.RecentChatsTabs[i].TabID == tab.TabID {
			u.RecentChatsTabs[i] = tab
			return nil
		}
	}
	u.RecentChatsTabs = append(u.RecentChatsTabs, tab)
	return nil
}

func (s *users) AddPastGroup(_ context.Context, userID string, pg models.PastGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.PastGroups = append(u.PastGroups, pg)
	return nil
}

func (s *users) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	return nil
}

// ---- chats ----

type chats Store

func (s *chats) Insert(_ context.Context, c *models.Chat) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chats[c.CustomID]; ok {
		return false, nil
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.UpdatedAt = time.Now().UTC()
	cp := *c
	s.chats[c.CustomID] = &cp
	return true, nil
}

func (s *chats) Update(_ context.Context, c *models.Chat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chats[c.CustomID]; !ok {
		return repository.ErrNotFound
	}
	c.UpdatedAt = time.Now().UTC()
	cp := *c
	s.chats[c.CustomID] = &cp
	return nil
}

func (s *chats) GetByCustomID(_ context.Context, customID string) (*models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[customID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *chats) SetReceiverStatus(_ context.Context, customID, receiverID, status string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[customID]
	if !ok {
		return repository.ErrNotFound
	}
	for i := range c.ReceiversInfo {
		if c.ReceiversInfo[i].ReceiverID == receiverID {
			c.ReceiversInfo[i].Status = status
			t := at
			switch status {
			case models.ChatStatusDelivered:
				c.ReceiversInfo[i].DeliveredTime = &t
			case models.ChatStatusSeen:
				c.ReceiversInfo[i].SeenTime = &t
			}
		}
	}
	return nil
}

func (s *chats) SoftDelete(_ context.Context, customID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[customID]
	if !ok {
		return repository.ErrNotFound
	}
	c.DeletedByUsers = addToSet(c.DeletedByUsers, userID)
	return nil
}

func (s *chats) DeleteIfAllParticipantsDeleted(_ context.Context, customID string) (*models.Chat, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[customID]
	if !ok {
		return nil, false, repository.ErrNotFound
	}
	for _, p := range c.Participants() {
		if !contains(c.DeletedByUsers, p) {
			cp := *c
			return &cp, false, nil
		}
	}
	cp := *c
	delete(s.chats, customID)
	return &cp, true, nil
}

func (s *chats) SoftDeleteAllForGroup(_ context.Context, groupID string, userIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.chats {
		if c.GroupID != groupID {
			continue
		}
		for _, uid := range userIDs {
			c.DeletedByUsers = addToSet(c.DeletedByUsers, uid)
		}
	}
	return nil
}

func (s *chats) SoftDeleteAllForUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.chats {
		if c.SenderID == userID {
			c.DeletedByUsers = addToSet(c.DeletedByUsers, userID)
			continue
		}
		for _, ri := range c.ReceiversInfo {
			if ri.ReceiverID == userID {
				c.DeletedByUsers = addToSet(c.DeletedByUsers, userID)
				break
			}
		}
	}
	return nil
}

// ---- stories ----

type stories Store

func (s *stories) Insert(_ context.Context, st *models.Story) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stories[st.CustomID]; ok {
		return false, nil
	}
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	cp := *st
	s.stories[st.CustomID] = &cp
	return true, nil
}

func (s *stories) GetByCustomID(_ context.Context, customID string) (*models.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stories[customID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (s *stories) ListBySender(_ context.Context, senderID string) ([]*models.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Story
	for _, st := range s.stories {
		if st.SenderID == senderID {
			cp := *st
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *stories) MarkSeen(_ context.Context, customID, receiverID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stories[customID]
	if !ok {
		return repository.ErrNotFound
	}
	for i := range st.ReceiversInfo {
		if st.ReceiversInfo[i].ReceiverID == receiverID {
			t := at
			st.ReceiversInfo[i].SeenTime = &t
		}
	}
	return nil
}

func (s *stories) SoftDelete(_ context.Context, customID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stories[customID]
	if !ok {
		return repository.ErrNotFound
	}
	st.DeletedByUsers = addToSet(st.DeletedByUsers, userID)
	return nil
}

func (s *stories) DeleteIfAllParticipantsDeleted(_ context.Context, customID string) (*models.Story, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stories[customID]
	if !ok {
		return nil, false, repository.ErrNotFound
	}
	for _, p := range st.Participants() {
		if !contains(st.DeletedByUsers, p) {
			cp := *st
			return &cp, false, nil
		}
	}
	cp := *st
	delete(s.stories, customID)
	return &cp, true, nil
}

func (s *stories) Delete(_ context.Context, customID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.stories, customID)
	return nil
}

// ---- groups ----

type groups Store

func (s *groups) Create(_ context.Context, g *models.Group) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	g.CreatedAt = time.Now().UTC()
	cp := *g
	s.groups[g.ID] = &cp
	return g.ID, nil
}

func (s *groups) Get(_ context.Context, id string) (*models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (s *groups) AddInvited(_ context.Context, groupID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if g.IsMember(userID) || g.IsInvited(userID) {
		return false, nil
	}
	g.InvitedUsers = append(g.InvitedUsers, userID)
	return true, nil
}

func (s *groups) AddMember(_ context.Context, groupID, userID string, asAdmin bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if g.IsMember(userID) {
		return false, nil
	}
	g.Members = append(g.Members, userID)
	g.InvitedUsers = pull(g.InvitedUsers, userID)
	kept := g.PastMembers[:0]
	for _, p := range g.PastMembers {
		if p.MemberID != userID {
			kept = append(kept, p)
		}
	}
	g.PastMembers = kept
	if asAdmin {
		g.Admins = addToSet(g.Admins, userID)
	}
	return true, nil
}

func (s *groups) RemoveMember(_ context.Context, groupID, userID string, exitedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if !g.IsMember(userID) || g.IsPastMember(userID) {
		return false, nil
	}
	g.Members = pull(g.Members, userID)
	g.Admins = pull(g.Admins, userID)
	g.InvitedUsers = pull(g.InvitedUsers, userID)
	g.PastMembers = append(g.PastMembers, models.PastMember{MemberID: userID, ExitedAt: exitedAt})
	return true, nil
}

func (s *groups) PromoteAdmin(_ context.Context, groupID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if !g.IsMember(userID) || g.IsAdmin(userID) {
		return false, nil
	}
	g.Admins = append(g.Admins, userID)
	return true, nil
}

func (s *groups) DemoteAdmin(_ context.Context, groupID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return repository.ErrNotFound
	}
	g.Admins = pull(g.Admins, userID)
	return nil
}

func (s *groups) SetProfile(_ context.Context, groupID, name, picture, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return repository.ErrNotFound
	}
	if name != "" {
		g.Name = name
	}
	if picture != "" {
		g.Picture = picture
	}
	if description != "" {
		g.Description = description
	}
	return nil
}

func (s *groups) SetMessagePermission(_ context.Context, groupID, permission string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return repository.ErrNotFound
	}
	g.MessagePermission = permission
	return nil
}

func (s *groups) Delete(_ context.Context, groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.groups, groupID)
	return nil
}

func (s *groups) RemoveUserEverywhere(_ context.Context, userID string, exitedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.groups {
		if g.IsMember(userID) {
			g.Members = pull(g.Members, userID)
			g.Admins = pull(g.Admins, userID)
			g.PastMembers = append(g.PastMembers, models.PastMember{MemberID: userID, ExitedAt: exitedAt})
		}
		g.InvitedUsers = pull(g.InvitedUsers, userID)
	}
	return nil
}

// ---- broadcasts ----

type broadcasts Store

func (s *broadcasts) Create(_ context.Context, b *models.Broadcast) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.CreatedAt = time.Now().UTC()
	cp := *b
	s.broadcasts[b.ID] = &cp
	return b.ID, nil
}

func (s *broadcasts) Get(_ context.Context, id string) (*models.Broadcast, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.broadcasts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *broadcasts) AddMember(_ context.Context, broadcastID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.broadcasts[broadcastID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if b.IsMember(userID) {
		return false, nil
	}
	b.Members = append(b.Members, userID)
	return true, nil
}

func (s *broadcasts) RemoveMember(_ context.Context, broadcastID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.broadcasts[broadcastID]
	if !ok {
		return repository.ErrNotFound
	}
	b.Members = pull(b.Members, userID)
	return nil
}

func (s *broadcasts) SetProfile(_ context.Context, broadcastID, name, picture string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.broadcasts[broadcastID]
	if !ok {
		return repository.ErrNotFound
	}
	if name != "" {
		b.Name = name
	}
	if picture != "" {
		b.Picture = picture
	}
	return nil
}

func (s *broadcasts) Delete(_ context.Context, broadcastID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.broadcasts, broadcastID)
	return nil
}

func (s *broadcasts) RemoveUserEverywhere(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.broadcasts {
		b.Members = pull(b.Members, userID)
	}
	return nil
}

// ---- calls ----

type calls Store

func (s *calls) Insert(_ context.Context, c *models.Call) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.UpdatedAt = time.Now().UTC()
	cp := *c
	s.calls[c.CustomID] = &cp
	return nil
}

func (s *calls) GetByCustomID(_ context.Context, customID string) (*models.Call, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.calls[customID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *calls) SetStatus(_ context.Context, customID, status string, callDur, ringDur time.Duration, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.calls[customID]
	if !ok {
		return repository.ErrNotFound
	}
	c.Status = status
	if callDur > 0 {
		c.CallDuration = callDur
	}
	if ringDur > 0 {
		c.RingDuration = ringDur
	}
	c.UpdatedAt = at.UTC()
	return nil
}

func (s *calls) SetSeenByCallee(_ context.Context, customID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.calls[customID]
	if !ok {
		return repository.ErrNotFound
	}
	c.SeenByCallee = true
	return nil
}

func (s *calls) SoftDelete(_ context.Context, customID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.calls[customID]
	if !ok {
		return repository.ErrNotFound
	}
	c.DeletedByUsers = addToSet(c.DeletedByUsers, userID)
	return nil
}

func (s *calls) DeleteIfAllPartiesDeleted(_ context.Context, customID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.calls[customID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if contains(c.DeletedByUsers, c.CallerID) && contains(c.DeletedByUsers, c.CalleeID) {
		delete(s.calls, customID)
		return true, nil
	}
	return false, nil
}

func (s *calls) FindUnresolved(_ context.Context) ([]*models.Call, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Call
	for _, c := range s.calls {
		switch c.Status {
		case models.CallStatusCalling, models.CallStatusRinging:
			cp := *c
			out = append(out, &cp)
		case models.CallStatusAccepted:
			if c.CallDuration == 0 {
				cp := *c
				out = append(out, &cp)
			}
		}
	}
	return out, nil
}
