// Package google provides service account authentication and directory
// lookups for Google Workspace.
//
// A ServiceAccount with domain-wide delegation impersonates each calendar
// owner in turn, so one key serves every user. HTTP clients are cached per
// impersonated subject and scope set.
//
// Directory resolves a user's durable ID and display name through the Admin
// SDK Directory API.
package google
