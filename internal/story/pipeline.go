// Package story fans out stories. The receiver set is derived from the
// sender's non-blocked connections filtered through the story visibility
// policy, not from an explicit receiver list.
package story

import (
	"context"
	"time"

	"github.com/fathima-sithara/realtime-service/internal/events"
	"github.com/fathima-sithara/realtime-service/internal/fanout"
	"github.com/fathima-sithara/realtime-service/internal/models"
	"github.com/fathima-sithara/realtime-service/internal/registry"
	"github.com/fathima-sithara/realtime-service/internal/repository"
	"github.com/fathima-sithara/realtime-service/internal/storage"
	"github.com/fathima-sithara/realtime-service/internal/visibility"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Previewer matches the chat pipeline's link resolver.
type Previewer interface {
	Resolve(ctx context.Context, text string) *models.LinkPreview
}

// Draft is one inbound story plus transport-only upload bytes.
type Draft struct {
	models.Story
	FileData    []byte `json:"fileData,omitempty"`
	FileName    string `json:"fileName,omitempty"`
	ContentType string `json:"contentType,omitempty"`
}

type Pipeline struct {
	store   *repository.Store
	blobs   storage.BlobStore
	reg     *registry.Registry
	preview Previewer
	log     *zap.SugaredLogger
}

func NewPipeline(store *repository.Store, blobs storage.BlobStore, reg *registry.Registry,
	preview Previewer, log *zap.SugaredLogger) *Pipeline {
	return &Pipeline{store: store, blobs: blobs, reg: reg, preview: preview, log: log}
}

// Submit publishes each draft to the policy-derived audience.
func (p *Pipeline) Submit(ctx context.Context, senderID string, drafts []Draft) error {
	sender, err := p.store.Users.Get(ctx, senderID)
	if err != nil {
		return err
	}
	for i := range drafts {
		p.processDraft(ctx, sender, &drafts[i])
	}
	return nil
}

func (p *Pipeline) processDraft(ctx context.Context, sender *models.User, d *Draft) {
	s := &d.Story
	s.SenderID = sender.ID
	if s.CustomID == "" {
		s.CustomID = uuid.NewString()
	}
	if s.SentTime.IsZero() {
		s.SentTime = time.Now().UTC()
	}

	if s.StoryType == "text" && p.preview != nil && s.LinkPreview == nil {
		s.LinkPreview = p.preview.Resolve(ctx, s.Text)
	}

	if len(d.FileData) > 0 {
		key := uuid.NewString()
		contentType := d.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		url, err := p.blobs.Upload(ctx, key, contentType, d.FileData)
		if err != nil {
			p.log.Warnw("story upload", "customId", s.CustomID, "err", err)
			p.reg.SendTo(sender.ID, events.ChatSendFailed, "failedStory",
				map[string]any{"customID": s.CustomID, "isFailed": true})
			return
		}
		s.File = &models.FileInfo{Key: key, Name: d.FileName, ContentType: contentType,
			Size: int64(len(d.FileData)), PublicURL: url}
	}

	audience := visibility.Audience(sender.Visibility.Story, sender.ID, sender.Connections, sender.BlockedUsers)
	receivers, err := p.store.Users.GetMany(ctx, audience)
	if err != nil {
		p.log.Errorw("load story audience", "customId", s.CustomID, "err", err)
		return
	}

	s.ReceiversInfo = s.ReceiversInfo[:0]
	for _, rcv := range receivers {
		if rcv.HasBlocked(sender.ID) {
			continue
		}
		s.ReceiversInfo = append(s.ReceiversInfo, models.StoryReceiverInfo{
			ReceiverID:          rcv.ID,
			IsSeenStatusAllowed: visibility.IsVisible(rcv.Visibility.StorySeenStatus, sender.ID, rcv.BlockedUsers),
		})
	}
	s.StatusForSender = models.ChatStatusSent

	created, err := p.store.Stories.Insert(ctx, s)
	if err != nil {
		p.log.Errorw("story insert", "customId", s.CustomID, "err", err)
		return
	}
	if !created {
		return
	}

	p.reg.SendTo(sender.ID, events.NewStories, "newStories", []models.Story{*s})
	ids := make([]string, 0, len(s.ReceiversInfo))
	for _, ri := range s.ReceiversInfo {
		ids = append(ids, ri.ReceiverID)
	}
	fanout.Push(p.reg, ids, func(rid string) (string, string, any, bool) {
		return events.NewStories, "newStories", []models.Story{s.ReceiverProjection(rid)}, true
	})
}

// Watch stamps the watcher's seen time and echoes it to the story owner when
// the watcher's policy lets the owner observe it.
func (p *Pipeline) Watch(ctx context.Context, watcherID, customID string) error {
	s, err := p.store.Stories.GetByCustomID(ctx, customID)
	if err != nil {
		return err
	}
	var entry *models.StoryReceiverInfo
	for i := range s.ReceiversInfo {
		if s.ReceiversInfo[i].ReceiverID == watcherID {
			entry = &s.ReceiversInfo[i]
			break
		}
	}
	if entry == nil {
		return nil
	}
	now := time.Now().UTC()
	if err := p.store.Stories.MarkSeen(ctx, customID, watcherID, now); err != nil {
		return err
	}
	if entry.IsSeenStatusAllowed {
		p.reg.SendTo(s.SenderID, events.UpdateStoryWatching, "watchedStory", map[string]any{
			"customID":   customID,
			"receiverId": watcherID,
			"seenTime":   now,
		})
	}
	return nil
}

// RemoveSome erases the given stories the sender owns, for everyone.
func (p *Pipeline) RemoveSome(ctx context.Context, senderID string, customIDs []string) error {
	for _, id := range customIDs {
		s, err := p.store.Stories.GetByCustomID(ctx, id)
		if err != nil || s.SenderID != senderID {
			continue
		}
		p.remove(ctx, s)
	}
	return nil
}

// RemoveAll erases every story the sender owns.
func (p *Pipeline) RemoveAll(ctx context.Context, senderID string) error {
	list, err := p.store.Stories.ListBySender(ctx, senderID)
	if err != nil {
		return err
	}
	for _, s := range list {
		p.remove(ctx, s)
	}
	return nil
}

func (p *Pipeline) remove(ctx context.Context, s *models.Story) {
	if err := p.store.Stories.Delete(ctx, s.CustomID); err != nil {
		p.log.Errorw("story delete", "customId", s.CustomID, "err", err)
		return
	}
	if s.File != nil && s.File.Key != "" {
		if err := p.blobs.Delete(ctx, s.File.Key); err != nil {
			p.log.Warnw("story blob delete", "key", s.File.Key, "err", err)
		}
	}
	ids := []string{s.SenderID}
	for _, ri := range s.ReceiversInfo {
		ids = append(ids, ri.ReceiverID)
	}
	fanout.Broadcast(p.reg, ids, events.RemoveStoriesSome, "removedStories", []string{s.CustomID})
}
