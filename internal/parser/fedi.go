package parser

import (
	"context"
	"fmt"
	"strings"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/fedibtc/fedicore/internal/fediuri"
)

// attempt runs one decode step of a multi-step sub-parser. A panic or error
// in the step is contained here so the next step still runs.
func (p *Parser) attempt(name string, step func() (Result, error)) (res Result, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Errorf("Decode step %s panicked: %v", name, r)
			res, ok = nil, false
		}
	}()

	res, err := step()
	if err != nil {
		p.log.Tracef("Decode step %s: %v", name, err)
		return nil, false
	}
	return res, res != nil
}

func (p *Parser) parseFediURI(ctx context.Context, in *input) (fn.Option[Result], error) {
	if !fediuri.IsFediURI(in.trimmed) {
		return fn.None[Result](), nil
	}
	uri := in.trimmed

	steps := []struct {
		name string
		step func() (Result, error)
	}{
		{"room", func() (Result, error) {
			id, err := fediuri.DecodeRoom(uri)
			if err != nil {
				return nil, err
			}
			return FediChatRoom{ID: id}, nil
		}},
		{"user", func() (Result, error) {
			id, err := fediuri.DecodeUser(uri)
			if err != nil {
				return nil, err
			}
			profile, err := p.bridge.MatrixUserProfile(ctx, id)
			if err != nil {
				p.log.Warnf("Fetching profile for %s: %v", id, err)
				return nil, fmt.Errorf("fetching profile: %w", err)
			}
			return FediChatUser{ID: id, DisplayName: profile.DisplayName}, nil
		}},
		{"legacy-member", func() (Result, error) {
			id, err := fediuri.DecodeMember(uri)
			if err != nil {
				return nil, err
			}
			return LegacyFediChatMember{ID: id}, nil
		}},
		{"legacy-group", func() (Result, error) {
			id, err := fediuri.DecodeGroup(uri)
			if err != nil {
				return nil, err
			}
			return LegacyFediChatGroup{ID: id}, nil
		}},
	}

	for _, s := range steps {
		if res, ok := p.attempt(s.name, s.step); ok {
			return fn.Some(res), nil
		}
	}
	return fn.None[Result](), nil
}

func (p *Parser) parseFedimintInvite(_ context.Context, in *input) (fn.Option[Result], error) {
	invite := stripPrefixFold(in.trimmed, "fedimint://", "fedimint:")
	if !strings.HasPrefix(strings.ToLower(invite), "fed1") {
		return fn.None[Result](), nil
	}
	return fn.Some[Result](FedimintInvite{Invite: invite}), nil
}

func (p *Parser) parseCommunityInvite(_ context.Context, in *input) (fn.Option[Result], error) {
	if !strings.HasPrefix(in.lower, "fedi:community") {
		return fn.None[Result](), nil
	}
	return fn.Some[Result](CommunityInvite{Invite: in.trimmed}), nil
}
