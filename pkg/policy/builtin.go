package policy

// BuiltinPolicies returns the policies every deployment is checked against.
func BuiltinPolicies() []Policy {
	return []Policy{
		retainPolicy(),
		objectStorePurgePolicy(),
	}
}

// retainPolicy rejects templates that keep resources alive after teardown.
func retainPolicy() Policy {
	return Policy{
		Name:        "no-retained-resources",
		Description: "Resources of an ephemeral stack must not be retained on delete or replace",
		Enabled:     true,
		Rego: `package stackprobe.policies.retain

import rego.v1

deny contains violation if {
	some id, res in input.template.Resources
	res.DeletionPolicy == "Retain"
	violation := {
		"message": sprintf("resource %s would be orphaned on stack deletion", [id]),
		"severity": "error",
		"resource": id,
	}
}

deny contains violation if {
	some id, res in input.template.Resources
	res.UpdateReplacePolicy == "Retain"
	violation := {
		"message": sprintf("resource %s would be orphaned on replacement", [id]),
		"severity": "error",
		"resource": id,
	}
}
`,
	}
}

// objectStorePurgePolicy rejects buckets that would block their own deletion.
func objectStorePurgePolicy() Policy {
	return Policy{
		Name:        "object-store-purge",
		Description: "Object-store containers must empty themselves on deletion",
		Enabled:     true,
		Rego: `package stackprobe.policies.purge

import rego.v1

deny contains violation if {
	some id, res in input.template.Resources
	res.Type == "AWS::S3::Bucket"
	not res.Properties.EmptyOnDelete
	violation := {
		"message": sprintf("bucket %s is not configured to purge its contents on deletion", [id]),
		"severity": "error",
		"resource": id,
	}
}
`,
	}
}
