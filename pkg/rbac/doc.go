// Package rbac evaluates worker permissions. A worker's effective permission
// set is the union of the permission codes of every group they belong to;
// superusers bypass evaluation entirely. Permissions are loaded fresh on
// every check so group changes take effect immediately.
package rbac
