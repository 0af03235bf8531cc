// Package events names every event type carried on the wire. Inbound and
// outbound frames share the same envelope: {"type": <name>, <dataName>: ...}.
package events

const (
	// connection lifecycle
	ConnectionsRequests = "connections:requests"
	ConnectionsAccepted = "connections:accepted"
	RemoveConnections   = "remove:connections"

	// profile and privacy
	UserProfileInfoChange = "user:profileInfo:change"
	UserVisibilityChange  = "user:visibility:change"
	UserBlock             = "user:block"
	UserUnblock           = "user:unblock"

	// chat
	NewChats          = "new:chats"
	UpdateChatsStatus = "update:chats:status"
	DeleteChats       = "delete:chats"
	ChattingIndicator = "user:chatting:indicator"
	ChatSendFailed    = "chats:send:failed"

	// story
	NewStories          = "new:stories"
	UpdateStoryWatching = "update:story:watching"
	RemoveStoriesSome   = "remove:stories:some"
	RemoveStoriesAll    = "remove:stories:all"

	// group
	NewGroup                     = "new:group"
	AddMemberToGroup             = "add:member:to:group"
	JoinToGroup                  = "join:to:group"
	RemoveGroupMember            = "remove:group:member"
	PromoteMembersToAdmins       = "promote:members:to:admins"
	DemoteMembersFromAdmins      = "demote:members:from:admins"
	GroupProfileInfoChange       = "group:profileInfo:change"
	GroupMessagePermissionChange = "group:message:permission:change"
	GroupDeletePermanently       = "group:delete:permanently"

	// broadcast
	NewBroadcast               = "new:broadcast"
	AddMemberToBroadcast       = "add:member:to:broadcast"
	RemoveBroadcastMember      = "remove:broadcast:member"
	BroadcastProfileInfoChange = "broadcast:profileInfo:change"
	BroadcastDeletePermanently = "broadcast:delete:permanently"

	// call signaling
	MakeNewCall           = "make:new:call"
	BusyOnCall            = "busy:on:call"
	CallAccepted          = "call:accepted"
	CallRejected          = "call:rejected"
	CallEnded             = "call:ended"
	CallRenegotiation     = "call:renegotiation"
	CallRenegotiationDone = "call:renegotiation:done"
	CallToggleAudio       = "call:toggleAudio"
	CallToggleVideo       = "call:toggleVideo"
	DeleteCalls           = "delete:calls"

	// account
	DeleteUserAccount = "delete:user:account"
)
