// Package interfaces defines the types shared by the provisioning agent's
// components: the goal state, the readiness document, the wireserver operation
// names and the error taxonomy.
package interfaces
