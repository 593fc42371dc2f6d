// Package cfn implements the harness ControlPlane against AWS
// CloudFormation, and principal resolution against AWS STS.
package cfn
