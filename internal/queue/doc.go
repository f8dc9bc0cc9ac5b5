// Package queue holds the in-memory working set of the assignment engine:
// per-agent priority queues, the category subscription index and the
// least-loaded balancer.
//
// Store and SubscriptionIndex are safe for concurrent use. LoadBalancer takes
// no lock; two concurrent picks may read the same counts before either
// assignment commits and route both tickets to the same agent.
package queue
