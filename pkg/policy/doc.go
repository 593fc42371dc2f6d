// Package policy gates synthesized templates before deployment. Built-in
// Rego policies verify that the removal-policy rewrite actually held: no
// resource may retain on delete or replace, and every object-store container
// must purge its contents on deletion. Violations block the deployment.
package policy
