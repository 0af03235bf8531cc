// Package handlers decodes inbound payloads and invokes the domain
// components. Each event type maps to exactly one handler; handlers take
// explicit dependencies instead of capturing connection state.
package handlers

import (
	"github.com/fathima-sithara/realtime-service/internal/call"
	"github.com/fathima-sithara/realtime-service/internal/chat"
	"github.com/fathima-sithara/realtime-service/internal/events"
	"github.com/fathima-sithara/realtime-service/internal/membership"
	"github.com/fathima-sithara/realtime-service/internal/registry"
	"github.com/fathima-sithara/realtime-service/internal/repository"
	"github.com/fathima-sithara/realtime-service/internal/router"
	"github.com/fathima-sithara/realtime-service/internal/story"
	"go.uber.org/zap"
)

type Deps struct {
	Store   *repository.Store
	Reg     *registry.Registry
	Chats   *chat.Pipeline
	Stories *story.Pipeline
	Members *membership.Manager
	Calls   *call.Signaler
	Log     *zap.SugaredLogger
}

// Register wires the full event table.
func Register(r *router.Router, d *Deps) {
	// connection lifecycle
	r.Handle(events.ConnectionsRequests, d.connectionRequests)
	r.Handle(events.ConnectionsAccepted, d.connectionsAccepted)
	r.Handle(events.RemoveConnections, d.removeConnections)

	// profile and privacy
	r.Handle(events.UserProfileInfoChange, d.profileInfoChange)
	r.Handle(events.UserVisibilityChange, d.visibilityChange)
	r.Handle(events.UserBlock, d.blockUser)
	r.Handle(events.UserUnblock, d.unblockUser)
	r.Handle(events.DeleteUserAccount, d.deleteAccount)

	// chat
	r.Handle(events.NewChats, d.newChats)
	r.Handle(events.UpdateChatsStatus, d.updateChatsStatus)
	r.Handle(events.DeleteChats, d.deleteChats)
	r.Handle(events.ChattingIndicator, d.chattingIndicator)

	// story
	r.Handle(events.NewStories, d.newStories)
	r.Handle(events.UpdateStoryWatching, d.storyWatching)
	r.Handle(events.RemoveStoriesSome, d.removeStoriesSome)
	r.Handle(events.RemoveStoriesAll, d.removeStoriesAll)

	// group
	r.Handle(events.NewGroup, d.newGroup)
	r.Handle(events.AddMemberToGroup, d.addGroupMembers)
	r.Handle(events.JoinToGroup, d.joinGroup)
	r.Handle(events.RemoveGroupMember, d.removeGroupMember)
	r.Handle(events.PromoteMembersToAdmins, d.promoteAdmins)
	r.Handle(events.DemoteMembersFromAdmins, d.demoteAdmins)
	r.Handle(events.GroupProfileInfoChange, d.groupProfileChange)
	r.Handle(events.GroupMessagePermissionChange, d.groupPermissionChange)
	r.Handle(events.GroupDeletePermanently, d.deleteGroup)

	// broadcast
	r.Handle(events.NewBroadcast, d.newBroadcast)
	r.Handle(events.AddMemberToBroadcast, d.addBroadcastMembers)
	r.Handle(events.RemoveBroadcastMember, d.removeBroadcastMember)
	r.Handle(events.BroadcastProfileInfoChange, d.broadcastProfileChange)
	r.Handle(events.BroadcastDeletePermanently, d.deleteBroadcast)

	// call
	r.Handle(events.MakeNewCall, d.makeNewCall)
	r.Handle(events.CallAccepted, d.callAccepted)
	r.Handle(events.CallRejected, d.callRejected)
	r.Handle(events.CallEnded, d.callEnded)
	r.Handle(events.BusyOnCall, d.callRelay(events.BusyOnCall))
	r.Handle(events.CallRenegotiation, d.callRelay(events.CallRenegotiation))
	r.Handle(events.CallRenegotiationDone, d.callRelay(events.CallRenegotiationDone))
	r.Handle(events.CallToggleAudio, d.callRelay(events.CallToggleAudio))
	r.Handle(events.CallToggleVideo, d.callRelay(events.CallToggleVideo))
	r.Handle(events.DeleteCalls, d.deleteCalls)
}
