// Package server keeps the bounded set of channels and their members.
package server

const (
	// DefaultMaxChannels caps how many channels may exist at once.
	DefaultMaxChannels = 30000
	// DefaultMaxMembersPerChannel caps the members of a single channel.
	DefaultMaxMembersPerChannel = 10000
)

type memberSet map[*Client]struct{}

// ChannelRegistry maps channel names to member sets. Channels are created on
// first join and deleted when their last member leaves.
//
// It is not safe for concurrent use; the hub goroutine owns it.
type ChannelRegistry struct {
	maxChannels int
	maxMembers  int
	channels    map[string]memberSet
	// joined is the reverse index used by PartAll.
	joined map[*Client]map[string]struct{}
}

// NewChannelRegistry creates an empty registry.
func NewChannelRegistry(maxChannels, maxMembers int) *ChannelRegistry {
	if maxChannels <= 0 {
		maxChannels = DefaultMaxChannels
	}
	if maxMembers <= 0 {
		maxMembers = DefaultMaxMembersPerChannel
	}
	return &ChannelRegistry{
		maxChannels: maxChannels,
		maxMembers:  maxMembers,
		channels:    make(map[string]memberSet),
		joined:      make(map[*Client]map[string]struct{}),
	}
}

// Join adds c to the named channel, creating it if needed. Joining a channel
// c already belongs to succeeds without change. The returned error matches
// ErrChannelJoin and, more specifically, ErrChannelLimit or ErrChannelFull.
func (r *ChannelRegistry) Join(c *Client, name string) error {
	members, ok := r.channels[name]
	if !ok {
		if len(r.channels) >= r.maxChannels {
			return ErrChannelLimit
		}
		members = make(memberSet)
		r.channels[name] = members
	}
	if _, ok := members[c]; ok {
		return nil
	}
	if len(members) >= r.maxMembers {
		return ErrChannelFull
	}

	members[c] = struct{}{}
	names := r.joined[c]
	if names == nil {
		names = make(map[string]struct{})
		r.joined[c] = names
	}
	names[name] = struct{}{}
	return nil
}

// Part removes c from the named channel. Unknown channels and non-members
// are ignored.
func (r *ChannelRegistry) Part(c *Client, name string) {
	members, ok := r.channels[name]
	if !ok {
		return
	}
	if _, ok := members[c]; !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(r.channels, name)
	}

	names := r.joined[c]
	delete(names, name)
	if len(names) == 0 {
		delete(r.joined, c)
	}
}

// PartAll removes c from every channel it belongs to.
func (r *ChannelRegistry) PartAll(c *Client) {
	for name := range r.joined[c] {
		r.Part(c, name)
	}
}

// Members returns a snapshot of the named channel's members. An unknown
// channel yields an empty result.
func (r *ChannelRegistry) Members(name string) []*Client {
	members := r.channels[name]
	out := make([]*Client, 0, len(members))
	for c := range members {
		out = append(out, c)
	}
	return out
}

// IsMember reports whether c belongs to the named channel.
func (r *ChannelRegistry) IsMember(c *Client, name string) bool {
	_, ok := r.channels[name][c]
	return ok
}

// ChannelsOf returns the names of the channels c belongs to.
func (r *ChannelRegistry) ChannelsOf(c *Client) []string {
	names := make([]string, 0, len(r.joined[c]))
	for name := range r.joined[c] {
		names = append(names, name)
	}
	return names
}

// Len returns the number of existing channels.
func (r *ChannelRegistry) Len() int { return len(r.channels) }
