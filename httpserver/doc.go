/*
Package httpserver implements a fake wireserver for local development and
end-to-end tests of the provisioning agent.

It serves the two endpoints the agent uses:

  - GET /machine?comp=goalstate returns a goal-state document for the configured
    incarnation, container and instance.
  - POST /machine?comp=health accepts a readiness report. The report must carry
    the x-ms-version, x-ms-agent-name and content-type headers, a Content-Length
    matching the body, and must name the served goal state. Otherwise the
    request is rejected with 400, 415 or 409.

Both endpoints can be told to fail a number of initial requests with 500, which
exercises the agent's retry path. /livez always answers; /readyz answers 200
once a Ready report has been accepted.
*/
package httpserver
