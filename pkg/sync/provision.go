package sync

import (
	"context"
	"fmt"

	"github.com/edulinkhq/chansync/pkg/channame"
	"github.com/edulinkhq/chansync/pkg/logger"
	"github.com/edulinkhq/chansync/pkg/model"
	"github.com/edulinkhq/chansync/pkg/store"
)

// NamingConfig carries the channel-name derivation settings. Templates use
// the `{$a->key}` placeholder form; InvalidPattern is the regexp class of
// characters replaced during sanitization.
type NamingConfig struct {
	CourseTemplate string
	GroupTemplate  string
	InvalidPattern string
}

// Provisioner creates and retires channel bindings. Channel names derive
// deterministically from metadata, so re-provisioning after a restore
// recomputes the same channel identity.
type Provisioner struct {
	svc      ChannelService
	bindings store.BindingsStore
	naming   NamingConfig
}

func NewProvisioner(svc ChannelService, bindings store.BindingsStore, naming NamingConfig) *Provisioner {
	return &Provisioner{svc: svc, bindings: bindings, naming: naming}
}

// ProvisionCourseChannel creates the course-level channel for a module
// instance and records the binding. Idempotent: an existing binding is
// returned as-is, without touching the remote side.
func (p *Provisioner) ProvisionCourseChannel(ctx context.Context, instanceID, courseID string, vars map[string]string) (model.ChannelBinding, error) {
	existing, err := p.bindings.FetchInstanceBindings(instanceID)
	if err != nil {
		return model.ChannelBinding{}, err
	}
	for _, binding := range existing {
		if !binding.IsGroupChannel() {
			return binding, nil
		}
	}

	return p.provision(ctx, p.naming.CourseTemplate, vars, model.ChannelBinding{
		InstanceID: instanceID,
		CourseID:   courseID,
	})
}

// ProvisionGroupChannel creates a channel for one LMS group within a module
// instance. Idempotent per group.
func (p *Provisioner) ProvisionGroupChannel(ctx context.Context, instanceID, courseID, groupID string, vars map[string]string) (model.ChannelBinding, error) {
	existing, err := p.bindings.FetchGroupBinding(instanceID, groupID)
	if err != nil {
		return model.ChannelBinding{}, err
	}
	if existing != nil {
		return *existing, nil
	}

	return p.provision(ctx, p.naming.GroupTemplate, vars, model.ChannelBinding{
		InstanceID: instanceID,
		CourseID:   courseID,
		GroupID:    &groupID,
	})
}

func (p *Provisioner) provision(ctx context.Context, template string, vars map[string]string, binding model.ChannelBinding) (model.ChannelBinding, error) {
	name, err := channame.FormatAndSanitize(template, vars, p.naming.InvalidPattern)
	if err != nil {
		return model.ChannelBinding{}, fmt.Errorf("failed to derive channel name: %w", err)
	}

	channelID, err := p.svc.CreateChannel(ctx, name)
	if err != nil {
		return model.ChannelBinding{}, err
	}

	binding.RemoteChannelID = channelID
	binding.ChannelName = name
	if err := p.bindings.SaveBinding(binding); err != nil {
		return model.ChannelBinding{}, fmt.Errorf("channel %s created but binding not persisted: %w", channelID, err)
	}
	return binding, nil
}

// RetireChannel archives the remote channel and deletes the binding row.
// Used when a group is deleted or an instance is removed. A missing remote
// channel is not an error; the binding is cleaned up regardless.
func (p *Provisioner) RetireChannel(ctx context.Context, remoteChannelID string) error {
	if err := p.svc.ArchiveChannel(ctx, remoteChannelID); err != nil {
		logger.Debug("archive of channel %s failed: %v", remoteChannelID, err)
	}
	return p.bindings.DeleteBinding(remoteChannelID)
}

// RetireInstance retires every channel bound to a module instance.
func (p *Provisioner) RetireInstance(ctx context.Context, instanceID string) error {
	bindings, err := p.bindings.FetchInstanceBindings(instanceID)
	if err != nil {
		return err
	}
	for _, binding := range bindings {
		if err := p.RetireChannel(ctx, binding.RemoteChannelID); err != nil {
			return err
		}
	}
	return nil
}

// RetireGroupChannel retires the channel bound to one group, if any.
func (p *Provisioner) RetireGroupChannel(ctx context.Context, instanceID, groupID string) error {
	binding, err := p.bindings.FetchGroupBinding(instanceID, groupID)
	if err != nil {
		return err
	}
	if binding == nil {
		return nil
	}
	return p.RetireChannel(ctx, binding.RemoteChannelID)
}
